package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yutosugimura/saltbreeze-backend/api/responses"
	"github.com/yutosugimura/saltbreeze-backend/api/validators"
	fulfillmentsvc "github.com/yutosugimura/saltbreeze-backend/internal/fulfillment"
	"github.com/yutosugimura/saltbreeze-backend/pkg/db/models"
	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
)

// StaffListFulfillments returns the shipping queue, newest first.
func StaffListFulfillments(svc fulfillmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		page, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := fulfillmentsvc.ListInput{Page: page}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseFulfillmentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			input.Status = &status
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		units := make([]fulfillmentUnitResponse, 0, len(result.Units))
		for i := range result.Units {
			units = append(units, newFulfillmentUnitResponse(&result.Units[i]))
		}
		responses.WriteSuccess(w, fulfillmentListResponse{
			Units:      units,
			NextCursor: result.NextCursor,
		})
	}
}

// StaffListOrderFulfillments returns every unit belonging to one order.
func StaffListOrderFulfillments(svc fulfillmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		units, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]fulfillmentUnitResponse, 0, len(units))
		for i := range units {
			items = append(items, newFulfillmentUnitResponse(&units[i]))
		}
		responses.WriteSuccess(w, fulfillmentListResponse{Units: items})
	}
}

// StaffMarkShipped ships one unit. Repeating the call on an already-shipped
// unit succeeds without changes.
func StaffMarkShipped(svc fulfillmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "unitID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfillment unit id"))
			return
		}

		unit, err := svc.MarkShipped(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newFulfillmentUnitResponse(unit))
	}
}

type fulfillmentListResponse struct {
	Units      []fulfillmentUnitResponse `json:"units"`
	NextCursor string                    `json:"next_cursor,omitempty"`
}

type fulfillmentUnitResponse struct {
	UnitID       uuid.UUID  `json:"unit_id"`
	OrderID      uuid.UUID  `json:"order_id"`
	ProductID    uuid.UUID  `json:"product_id"`
	ProductName  string     `json:"product_name"`
	CustomerName string     `json:"customer_name"`
	Size         string     `json:"size"`
	Status       string     `json:"status"`
	ShippedAt    *time.Time `json:"shipped_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func newFulfillmentUnitResponse(unit *models.FulfillmentUnit) fulfillmentUnitResponse {
	if unit == nil {
		return fulfillmentUnitResponse{}
	}
	return fulfillmentUnitResponse{
		UnitID:       unit.ID,
		OrderID:      unit.OrderID,
		ProductID:    unit.ProductID,
		ProductName:  unit.ProductName,
		CustomerName: unit.CustomerName,
		Size:         unit.Size,
		Status:       unit.Status.String(),
		ShippedAt:    unit.ShippedAt,
		CreatedAt:    unit.CreatedAt,
	}
}
