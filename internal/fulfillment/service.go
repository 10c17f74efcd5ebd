package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yutosugimura/saltbreeze-backend/internal/notifications"
	"github.com/yutosugimura/saltbreeze-backend/pkg/db/models"
	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
	"github.com/yutosugimura/saltbreeze-backend/pkg/pagination"
)

// Service tracks shippable units from payment confirmation through dispatch.
type Service interface {
	WithTx(tx *gorm.DB) Service
	CreateUnits(ctx context.Context, order *models.Order) ([]models.FulfillmentUnit, error)
	Get(ctx context.Context, id uuid.UUID) (*models.FulfillmentUnit, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.FulfillmentUnit, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	MarkShipped(ctx context.Context, id uuid.UUID) (*models.FulfillmentUnit, error)
}

// ListInput carries the staff listing filters.
type ListInput struct {
	Status *enums.FulfillmentStatus
	Page   pagination.Params
}

// ListResult is one page of units plus the cursor for the next page.
type ListResult struct {
	Units      []models.FulfillmentUnit
	NextCursor string
}

type service struct {
	repo       Repository
	dispatcher notifications.Dispatcher
	logg       *logger.Logger
}

// NewService builds the fulfillment tracker with the required dependencies.
func NewService(repo Repository, dispatcher notifications.Dispatcher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fulfillment repository required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dispatcher: dispatcher, logg: logg}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), dispatcher: s.dispatcher, logg: s.logg}
}

// CreateUnits expands a paid order into one fulfillment unit per physical
// item: an order line with qty 3 becomes three units, each shippable on its
// own.
func (s *service) CreateUnits(ctx context.Context, order *models.Order) ([]models.FulfillmentUnit, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	units := make([]models.FulfillmentUnit, 0, len(order.Items))
	for _, item := range order.Items {
		for i := 0; i < item.Qty; i++ {
			units = append(units, models.FulfillmentUnit{
				ID:           uuid.New(),
				OrderID:      order.ID,
				ProductID:    item.ProductID,
				ProductName:  item.Name,
				CustomerName: order.CustomerName,
				Size:         item.Size,
				Status:       enums.FulfillmentStatusPreparing,
			})
		}
	}

	if err := s.repo.CreateUnits(ctx, units); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist fulfillment units")
	}
	return units, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.FulfillmentUnit, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fulfillment unit id required")
	}
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fulfillment unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fulfillment unit")
	}
	return unit, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.FulfillmentUnit, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	units, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fulfillment units")
	}
	return units, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(input.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Page.Limit)
	rows, err := s.repo.List(ctx, ListFilter{
		Status: input.Status,
		Limit:  pagination.LimitWithBuffer(input.Page.Limit),
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fulfillment units")
	}

	result := &ListResult{Units: rows}
	if len(rows) > limit {
		result.Units = rows[:limit]
		last := result.Units[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// MarkShipped moves a unit to shipped and stamps the ship time. A unit that
// already shipped is returned unchanged; marking twice is a no-op, not an
// error, so double-clicks in the staff UI stay harmless.
func (s *service) MarkShipped(ctx context.Context, id uuid.UUID) (*models.FulfillmentUnit, error) {
	unit, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if unit.Status == enums.FulfillmentStatusShipped {
		return unit, nil
	}

	shippedAt := time.Now().UTC()
	if err := s.repo.MarkShipped(ctx, id, shippedAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist shipped status")
	}

	unit.Status = enums.FulfillmentStatusShipped
	unit.ShippedAt = &shippedAt

	ctx = s.logg.WithFields(ctx, map[string]any{
		"unit_id":  id.String(),
		"order_id": unit.OrderID.String(),
	})
	s.logg.Info(ctx, "fulfillment unit shipped")

	// Best effort: shipping succeeds even when the notice cannot be sent.
	event := notifications.Event{
		Kind:    enums.NotificationUnitShipped,
		OrderID: unit.OrderID,
		Data: map[string]any{
			"unit_id":      unit.ID.String(),
			"product_name": unit.ProductName,
			"size":         unit.Size,
		},
	}
	if err := s.dispatcher.Dispatch(ctx, event); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "shipping notice dispatch failed")
	}

	return unit, nil
}
