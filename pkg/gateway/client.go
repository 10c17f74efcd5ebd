package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yutosugimura/saltbreeze-backend/pkg/config"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
)

// SignatureHeader carries the hex HMAC-SHA256 of the webhook body.
const SignatureHeader = "X-Gateway-Signature"

var (
	errBaseURLRequired = errors.New("gateway base url is required")
	errAPIKeyRequired  = errors.New("gateway api key is required")
	errSecretRequired  = errors.New("gateway webhook secret is required")
)

// Client talks to the payment gateway's session API and verifies the
// signatures it puts on webhook deliveries.
type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	http          *http.Client
}

// NewClient validates the gateway configuration and builds a client.
func NewClient(ctx context.Context, cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	secret := strings.TrimSpace(cfg.WebhookSecret)
	if secret == "" {
		return nil, errSecretRequired
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("gateway client initialized (%s)", baseURL))
	}

	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: secret,
		http:          &http.Client{Timeout: timeout},
	}, nil
}

// RedirectParams describes the payment session requested for one order. The
// order id travels as correlation metadata and comes back on every
// notification for that payment.
type RedirectParams struct {
	OrderID   uuid.UUID
	AmountYen int
	Method    string
}

// RedirectSession is the gateway's answer: where to send the customer's
// browser, and the session id assigned on the gateway side.
type RedirectSession struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type createSessionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Method      string          `json:"method"`
	ExternalRef string          `json:"external_ref"`
}

// CreateRedirect asks the gateway for a hosted payment session.
func (c *Client) CreateRedirect(ctx context.Context, params RedirectParams) (*RedirectSession, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway client not initialized")
	}
	if params.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if params.AmountYen <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	body, err := json.Marshal(createSessionRequest{
		Amount:      decimal.NewFromInt(int64(params.AmountYen)),
		Currency:    "JPY",
		Method:      params.Method,
		ExternalRef: params.OrderID.String(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build session request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway rejected session request").
			WithDetails(map[string]any{"status": resp.StatusCode, "body": string(payload)})
	}

	var session RedirectSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode session response")
	}
	if session.RedirectURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned empty redirect url")
	}
	return &session, nil
}

// VerifySignature checks the HMAC-SHA256 signature the gateway computed over
// the raw webhook body. Comparison is constant time.
func (c *Client) VerifySignature(payload []byte, signature string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "gateway client not initialized")
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "gateway signature missing")
	}

	expected, err := hex.DecodeString(signature)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "malformed gateway signature")
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), expected) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "gateway signature mismatch")
	}
	return nil
}

// Sign computes the hex signature for a payload. Exposed for tests and for
// local gateway simulators.
func (c *Client) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
