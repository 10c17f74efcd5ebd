package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yutosugimura/saltbreeze-backend/api/responses"
	"github.com/yutosugimura/saltbreeze-backend/internal/reconcile"
	"github.com/yutosugimura/saltbreeze-backend/pkg/config"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/gateway"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
	"github.com/yutosugimura/saltbreeze-backend/pkg/metrics"
)

const eventGuardScope = "gateway-event"

type signatureVerifier interface {
	VerifySignature(payload []byte, signature string) error
}

type eventGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(ctx context.Context, keys ...string) error
}

// gatewayEvent is the documented webhook body. Unknown event types are
// acknowledged without action so the gateway never retries them.
type gatewayEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OrderID    uuid.UUID `json:"order_id"`
	PaymentRef string    `json:"payment_ref"`
}

// GatewayWebhook handles signed server-to-server payment notifications. The
// redis guard drops exact event redeliveries cheaply; the reconciliation
// gates remain the correctness mechanism when the guard misses.
func GatewayWebhook(svc reconcile.Service, verifier signatureVerifier, guard eventGuard, guardTTL time.Duration, engineMetrics *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if err := verifier.VerifySignature(payload, r.Header.Get(gateway.SignatureHeader)); err != nil {
			engineMetrics.IncWebhookRejected("signature")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var event gatewayEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			engineMetrics.IncWebhookRejected("malformed")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook body"))
			return
		}
		if event.EventID == "" {
			engineMetrics.IncWebhookRejected("missing_event_id")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event id required"))
			return
		}

		if !strings.HasPrefix(event.EventType, "payment.") {
			if logg != nil {
				logg.Info(ctx, fmt.Sprintf("ignoring gateway event type %s", event.EventType))
			}
			responses.WriteSuccess(w, nil)
			return
		}

		guardKey := guard.IdempotencyKey(eventGuardScope, event.EventID)
		fresh, err := guard.SetNX(ctx, guardKey, time.Now().UTC().Format(time.RFC3339Nano), guardTTL)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if !fresh {
			responses.WriteSuccess(w, webhookResponse{Applied: false})
			return
		}

		result, err := svc.Reconcile(ctx, event.OrderID, event.PaymentRef)
		if err != nil {
			// Release the guard so the gateway's retry can reach the handler.
			_ = guard.Del(ctx, guardKey)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("gateway event %s processed", event.EventID))
		}
		responses.WriteSuccess(w, webhookResponse{Applied: result.Applied})
	}
}

type webhookResponse struct {
	Applied bool `json:"applied"`
}

// GatewayCallback handles the browser redirect after a hosted payment. It is
// the secondary confirmation path for wallet flows whose webhook may lag; the
// customer always lands on the confirmation page, whether or not this call
// was the one that applied the payment.
func GatewayCallback(svc reconcile.Service, checkoutCfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation service unavailable"))
			return
		}

		orderID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("order_id")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		paymentRef := strings.TrimSpace(r.URL.Query().Get("payment_ref"))
		if paymentRef == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required"))
			return
		}

		if _, err := svc.Reconcile(ctx, orderID, paymentRef); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		target := confirmationTarget(checkoutCfg.ConfirmationURL, orderID)
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

func confirmationTarget(base string, orderID uuid.UUID) string {
	parsed, err := url.Parse(base)
	if err != nil {
		return base
	}
	query := parsed.Query()
	query.Set("order_id", orderID.String())
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
