package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yutosugimura/saltbreeze-backend/internal/fulfillment"
	"github.com/yutosugimura/saltbreeze-backend/internal/inventory"
	"github.com/yutosugimura/saltbreeze-backend/internal/notifications"
	"github.com/yutosugimura/saltbreeze-backend/internal/orders"
	"github.com/yutosugimura/saltbreeze-backend/pkg/db/models"
	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
	"github.com/yutosugimura/saltbreeze-backend/pkg/metrics"
)

// Result reports whether this delivery applied the payment side effects.
// Applied is false for every redelivery after the first successful one.
type Result struct {
	Applied bool
	Order   *models.Order
}

// Service applies gateway payment notifications to orders. Both the webhook
// and the browser callback funnel into Reconcile, which must stay correct
// under at-least-once, unordered delivery.
type Service interface {
	Reconcile(ctx context.Context, orderID uuid.UUID, paymentRef string) (*Result, error)
}

type service struct {
	ordersRepo  orders.Repository
	inventory   inventory.Service
	fulfillment fulfillment.Service
	dispatcher  notifications.Dispatcher
	metrics     *metrics.EngineMetrics
	logg        *logger.Logger
}

// ServiceParams collects the reconciliation handler dependencies.
type ServiceParams struct {
	OrdersRepo  orders.Repository
	Inventory   inventory.Service
	Fulfillment fulfillment.Service
	Dispatcher  notifications.Dispatcher
	Metrics     *metrics.EngineMetrics
	Logger      *logger.Logger
}

// NewService builds the reconciliation handler with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if params.Fulfillment == nil {
		return nil, fmt.Errorf("fulfillment service required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		ordersRepo:  params.OrdersRepo,
		inventory:   params.Inventory,
		fulfillment: params.Fulfillment,
		dispatcher:  params.Dispatcher,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// Reconcile confirms payment for an order. The two idempotency gates make
// duplicate deliveries harmless: a replay of the same reference, or any
// notification for an order that already confirmed, returns Applied=false
// without touching stock or sending mail. Only the first application writes
// the reference, moves the order to processing and runs the cash-branch side
// effects.
func (s *service) Reconcile(ctx context.Context, orderID uuid.UUID, paymentRef string) (*Result, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if paymentRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}

	ctx = s.logg.WithOrderID(ctx, orderID.String())
	ctx = s.logg.WithGatewayRef(ctx, paymentRef)

	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	// Gate one: exact redelivery of an already-applied reference.
	if order.GatewayPaymentRef != nil && *order.GatewayPaymentRef == paymentRef {
		s.metrics.IncReconcileDuplicate()
		s.logg.Info(ctx, "payment reference already applied")
		return &Result{Applied: false, Order: order}, nil
	}

	// Gate two: the order already confirmed under some reference; drop any
	// further notification regardless of which reference it carries.
	if order.Status.AtLeastProcessing() && order.GatewayPaymentRef != nil {
		s.metrics.IncReconcileDuplicate()
		s.logg.Info(ctx, "order already confirmed, dropping notification")
		return &Result{Applied: false, Order: order}, nil
	}

	if !order.Status.CanTransitionTo(enums.OrderStatusProcessing) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot accept payment confirmation").
			WithDetails(map[string]any{"status": order.Status.String()})
	}

	// The guarded write is the only arbiter when two notifications race: at
	// most one claims the write-once reference.
	claimed, err := s.ordersRepo.ClaimGatewayPaymentRef(ctx, orderID, paymentRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment reference")
	}
	if !claimed {
		current, err := s.ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		if current.GatewayPaymentRef != nil && *current.GatewayPaymentRef == paymentRef {
			s.metrics.IncReconcileDuplicate()
			return &Result{Applied: false, Order: current}, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "conflicting payment reference for order").
			WithDetails(map[string]any{"stored": deref(current.GatewayPaymentRef)})
	}

	if err := s.ordersRepo.UpdateStatus(ctx, orderID, enums.OrderStatusProcessing, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist status change")
	}
	order.GatewayPaymentRef = &paymentRef
	order.Status = enums.OrderStatusProcessing

	// Side effects run outside any shared transaction with the status write.
	// A partial failure leaves the order confirmed and is surfaced to the
	// caller for operational follow-up.
	for _, item := range order.Items {
		if _, err := s.inventory.Adjust(ctx, item.ProductID, item.Size, -item.Qty); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "step", "inventory"), "reconciliation side effect failed", err)
			return nil, err
		}
	}
	if _, err := s.fulfillment.CreateUnits(ctx, order); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "step", "fulfillment"), "reconciliation side effect failed", err)
		return nil, err
	}

	s.notifyConfirmed(ctx, order)
	s.metrics.IncReconcileApplied()
	s.logg.Info(ctx, "payment reconciled")

	return &Result{Applied: true, Order: order}, nil
}

func (s *service) notifyConfirmed(ctx context.Context, order *models.Order) {
	events := []notifications.Event{
		{
			Kind:      enums.NotificationOrderConfirmed,
			OrderID:   order.ID,
			Recipient: order.Email,
			Data:      map[string]any{"total_yen": order.TotalYen},
		},
		{
			Kind:    enums.NotificationAdminAlert,
			OrderID: order.ID,
			Data: map[string]any{
				"total_yen":      order.TotalYen,
				"payment_method": order.PaymentMethod.String(),
			},
		},
	}
	for _, event := range events {
		if err := s.dispatcher.Dispatch(ctx, event); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"kind":  event.Kind.String(),
				"error": err.Error(),
			}), "notification dispatch failed")
		}
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
