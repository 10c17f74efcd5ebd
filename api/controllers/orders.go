package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yutosugimura/saltbreeze-backend/api/responses"
	"github.com/yutosugimura/saltbreeze-backend/api/validators"
	orderssvc "github.com/yutosugimura/saltbreeze-backend/internal/orders"
	"github.com/yutosugimura/saltbreeze-backend/pkg/db/models"
	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
)

// StaffListOrders returns a status-filtered, cursor-paginated order listing.
func StaffListOrders(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		page, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orderssvc.ListInput{Page: page}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
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

		items := make([]orderResponse, 0, len(result.Orders))
		for i := range result.Orders {
			items = append(items, newOrderResponse(&result.Orders[i]))
		}
		responses.WriteSuccess(w, orderListResponse{
			Orders:     items,
			NextCursor: result.NextCursor,
		})
	}
}

// StaffGetOrder returns one order with its item snapshots.
func StaffGetOrder(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// StaffSetOrderStatus applies a lifecycle transition to the parent order.
func StaffSetOrderStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload setOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.SetStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type setOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type orderResponse struct {
	OrderID           uuid.UUID           `json:"order_id"`
	CustomerName      string              `json:"customer_name"`
	Email             string              `json:"email"`
	Phone             string              `json:"phone,omitempty"`
	PostalCode        string              `json:"postal_code"`
	Region            string              `json:"region"`
	Locality          string              `json:"locality"`
	AddressLine1      string              `json:"address_line1"`
	AddressLine2      *string             `json:"address_line2,omitempty"`
	SubtotalYen       int                 `json:"subtotal_yen"`
	ShippingFeeYen    int                 `json:"shipping_fee_yen"`
	TotalYen          int                 `json:"total_yen"`
	PaymentMethod     string              `json:"payment_method"`
	GatewayPaymentRef *string             `json:"gateway_payment_ref,omitempty"`
	Status            string              `json:"status"`
	Items             []orderItemResponse `json:"items"`
	ShippedAt         *time.Time          `json:"shipped_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	ItemID       uuid.UUID `json:"item_id"`
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	UnitPriceYen int       `json:"unit_price_yen"`
	Qty          int       `json:"qty"`
	Size         string    `json:"size"`
	ImageURL     string    `json:"image_url,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ItemID:       item.ID,
			ProductID:    item.ProductID,
			Name:         item.Name,
			UnitPriceYen: item.UnitPriceYen,
			Qty:          item.Qty,
			Size:         item.Size,
			ImageURL:     item.ImageURL,
		})
	}
	return orderResponse{
		OrderID:           order.ID,
		CustomerName:      order.CustomerName,
		Email:             order.Email,
		Phone:             order.Phone,
		PostalCode:        order.PostalCode,
		Region:            order.Region,
		Locality:          order.Locality,
		AddressLine1:      order.AddressLine1,
		AddressLine2:      order.AddressLine2,
		SubtotalYen:       order.SubtotalYen,
		ShippingFeeYen:    order.ShippingFeeYen,
		TotalYen:          order.TotalYen,
		PaymentMethod:     order.PaymentMethod.String(),
		GatewayPaymentRef: order.GatewayPaymentRef,
		Status:            order.Status.String(),
		Items:             items,
		ShippedAt:         order.ShippedAt,
		CreatedAt:         order.CreatedAt,
	}
}
