package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yutosugimura/saltbreeze-backend/internal/catalog"
	"github.com/yutosugimura/saltbreeze-backend/internal/fulfillment"
	"github.com/yutosugimura/saltbreeze-backend/internal/inventory"
	"github.com/yutosugimura/saltbreeze-backend/internal/notifications"
	"github.com/yutosugimura/saltbreeze-backend/internal/orders"
	"github.com/yutosugimura/saltbreeze-backend/pkg/config"
	"github.com/yutosugimura/saltbreeze-backend/pkg/db/models"
	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/gateway"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
	"github.com/yutosugimura/saltbreeze-backend/pkg/metrics"
)

var (
	emailPattern      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	postalCodePattern = regexp.MustCompile(`^\d{3}-?\d{4}$`)
)

// NextAction tells the storefront where to send the customer after checkout.
type NextAction struct {
	Type        NextActionType
	RedirectURL string
}

// NextActionType discriminates the two checkout outcomes.
type NextActionType string

const (
	// NextActionConfirmation means the order is committed; show the
	// confirmation page.
	NextActionConfirmation NextActionType = "confirmation"
	// NextActionRedirect means the customer must complete payment at the
	// gateway-hosted page first.
	NextActionRedirect NextActionType = "redirect"
)

// CustomerInput is the shipping and contact block of a checkout submission.
type CustomerInput struct {
	Name         string
	Email        string
	Phone        string
	PostalCode   string
	Region       string
	Locality     string
	AddressLine1 string
	AddressLine2 *string
}

// CartLine is one submitted cart row. Name, price and image are snapshotted
// from the live catalog, never trusted from the client.
type CartLine struct {
	ProductID uuid.UUID
	Size      string
	Qty       int
}

// Input is a full checkout submission.
type Input struct {
	Customer      CustomerInput
	Lines         []CartLine
	PaymentMethod enums.PaymentMethod
}

// Result reports the committed order and the storefront's next action.
type Result struct {
	OrderID    uuid.UUID
	Status     enums.OrderStatus
	TotalYen   int
	NextAction NextAction
}

type redirectCreator interface {
	CreateRedirect(ctx context.Context, params gateway.RedirectParams) (*gateway.RedirectSession, error)
}

// Service turns cart submissions into durable orders.
type Service interface {
	Checkout(ctx context.Context, input Input) (*Result, error)
}

type service struct {
	ordersRepo  orders.Repository
	catalogRepo catalog.Repository
	inventory   inventory.Service
	fulfillment fulfillment.Service
	dispatcher  notifications.Dispatcher
	gateway     redirectCreator
	shipping    config.ShippingConfig
	metrics     *metrics.EngineMetrics
	logg        *logger.Logger
}

// ServiceParams collects the checkout orchestrator dependencies.
type ServiceParams struct {
	OrdersRepo  orders.Repository
	CatalogRepo catalog.Repository
	Inventory   inventory.Service
	Fulfillment fulfillment.Service
	Dispatcher  notifications.Dispatcher
	Gateway     redirectCreator
	Shipping    config.ShippingConfig
	Metrics     *metrics.EngineMetrics
	Logger      *logger.Logger
}

// NewService builds the checkout orchestrator with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.CatalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
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
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		ordersRepo:  params.OrdersRepo,
		catalogRepo: params.CatalogRepo,
		inventory:   params.Inventory,
		fulfillment: params.Fulfillment,
		dispatcher:  params.Dispatcher,
		gateway:     params.Gateway,
		shipping:    params.Shipping,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// Checkout validates the submission, snapshots the cart against the catalog
// and commits the order. Cash orders are confirmed immediately; gateway
// orders stay pending until the payment notification arrives, so no stock is
// reserved for sessions the customer may abandon.
func (s *service) Checkout(ctx context.Context, input Input) (*Result, error) {
	if err := validateCustomer(input.Customer); err != nil {
		return nil, err
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"payment_method": input.PaymentMethod.String()})
	}

	order, err := s.buildOrder(ctx, input)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if input.PaymentMethod.IsGateway() {
		return s.checkoutGateway(ctx, order)
	}
	return s.checkoutCash(ctx, order, input.Lines)
}

func validateCustomer(customer CustomerInput) error {
	missing := []string{}
	if strings.TrimSpace(customer.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(customer.Region) == "" {
		missing = append(missing, "region")
	}
	if strings.TrimSpace(customer.Locality) == "" {
		missing = append(missing, "locality")
	}
	if strings.TrimSpace(customer.AddressLine1) == "" {
		missing = append(missing, "address_line1")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer info incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	if !emailPattern.MatchString(customer.Email) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	if !postalCodePattern.MatchString(strings.TrimSpace(customer.PostalCode)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid postal code")
	}
	return nil
}

func (s *service) buildOrder(ctx context.Context, input Input) (*models.Order, error) {
	orderID := uuid.New()
	items := make([]models.OrderItem, 0, len(input.Lines))
	subtotal := 0

	for _, line := range input.Lines {
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		if strings.TrimSpace(line.Size) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line size required").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}

		product, err := s.catalogRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": line.ProductID.String()})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		items = append(items, models.OrderItem{
			ID:           uuid.New(),
			OrderID:      orderID,
			ProductID:    product.ID,
			Name:         product.Name,
			UnitPriceYen: product.PriceYen,
			Qty:          line.Qty,
			Size:         line.Size,
			ImageURL:     product.ImageURL,
		})
		subtotal += product.PriceYen * line.Qty
	}

	fee := shippingFee(s.shipping, subtotal, input.Customer.Region, input.Customer.Locality)

	status := enums.OrderStatusPending
	if !input.PaymentMethod.IsGateway() {
		status = enums.OrderStatusProcessing
	}

	return &models.Order{
		ID:             orderID,
		CustomerName:   strings.TrimSpace(input.Customer.Name),
		Email:          strings.TrimSpace(input.Customer.Email),
		Phone:          strings.TrimSpace(input.Customer.Phone),
		PostalCode:     strings.TrimSpace(input.Customer.PostalCode),
		Region:         strings.TrimSpace(input.Customer.Region),
		Locality:       strings.TrimSpace(input.Customer.Locality),
		AddressLine1:   strings.TrimSpace(input.Customer.AddressLine1),
		AddressLine2:   input.Customer.AddressLine2,
		SubtotalYen:    subtotal,
		ShippingFeeYen: fee,
		TotalYen:       subtotal + fee,
		PaymentMethod:  input.PaymentMethod,
		Status:         status,
		Items:          items,
	}, nil
}

// checkoutCash commits a cash-on-delivery order in processing and applies the
// payment side effects inline. Failures after the order write are logged and
// surfaced, never rolled back, so a half-applied order is visible for
// operational follow-up instead of silently vanishing.
func (s *service) checkoutCash(ctx context.Context, order *models.Order, lines []CartLine) (*Result, error) {
	if _, err := s.ordersRepo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	s.metrics.IncCheckout(order.PaymentMethod.String())

	for _, line := range lines {
		if _, err := s.inventory.Adjust(ctx, line.ProductID, line.Size, -line.Qty); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "step", "inventory"), "cash checkout side effect failed", err)
			return nil, err
		}
	}

	if _, err := s.fulfillment.CreateUnits(ctx, order); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "step", "fulfillment"), "cash checkout side effect failed", err)
		return nil, err
	}

	s.notifyConfirmed(ctx, order)
	s.logg.Info(ctx, "cash order committed")

	return &Result{
		OrderID:    order.ID,
		Status:     order.Status,
		TotalYen:   order.TotalYen,
		NextAction: NextAction{Type: NextActionConfirmation},
	}, nil
}

// checkoutGateway commits a pending order and asks the gateway for a hosted
// payment page. Inventory and fulfillment are deferred until the payment
// notification confirms the money actually moved.
func (s *service) checkoutGateway(ctx context.Context, order *models.Order) (*Result, error) {
	if _, err := s.ordersRepo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	s.metrics.IncCheckout(order.PaymentMethod.String())

	session, err := s.gateway.CreateRedirect(ctx, gateway.RedirectParams{
		OrderID:   order.ID,
		AmountYen: order.TotalYen,
		Method:    order.PaymentMethod.String(),
	})
	if err != nil {
		// The order stays pending; the customer can retry or the session is
		// abandoned and reconciled never.
		s.logg.Error(ctx, "gateway session request failed", err)
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "session_id", session.SessionID), "gateway order awaiting payment")

	return &Result{
		OrderID:    order.ID,
		Status:     order.Status,
		TotalYen:   order.TotalYen,
		NextAction: NextAction{Type: NextActionRedirect, RedirectURL: session.RedirectURL},
	}, nil
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
