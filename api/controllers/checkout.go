package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/yutosugimura/saltbreeze-backend/api/responses"
	"github.com/yutosugimura/saltbreeze-backend/api/validators"
	checkoutsvc "github.com/yutosugimura/saltbreeze-backend/internal/checkout"
	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
)

// Checkout handles storefront cart submissions.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		lines := make([]checkoutsvc.CartLine, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, checkoutsvc.CartLine{
				ProductID: line.ProductID,
				Size:      line.Size,
				Qty:       line.Qty,
			})
		}

		result, err := svc.Checkout(r.Context(), checkoutsvc.Input{
			Customer: checkoutsvc.CustomerInput{
				Name:         payload.Customer.Name,
				Email:        payload.Customer.Email,
				Phone:        payload.Customer.Phone,
				PostalCode:   payload.Customer.PostalCode,
				Region:       payload.Customer.Region,
				Locality:     payload.Customer.Locality,
				AddressLine1: payload.Customer.AddressLine1,
				AddressLine2: payload.Customer.AddressLine2,
			},
			Lines:         lines,
			PaymentMethod: method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderID:     result.OrderID,
			Status:      result.Status.String(),
			TotalYen:    result.TotalYen,
			NextAction:  string(result.NextAction.Type),
			RedirectURL: result.NextAction.RedirectURL,
		})
	}
}

type checkoutCustomer struct {
	Name         string  `json:"name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        string  `json:"phone,omitempty"`
	PostalCode   string  `json:"postal_code" validate:"required"`
	Region       string  `json:"region" validate:"required"`
	Locality     string  `json:"locality" validate:"required"`
	AddressLine1 string  `json:"address_line1" validate:"required"`
	AddressLine2 *string `json:"address_line2,omitempty"`
}

type checkoutLine struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1"`
}

type checkoutRequest struct {
	Customer      checkoutCustomer `json:"customer" validate:"required"`
	Lines         []checkoutLine   `json:"lines" validate:"required,min=1,dive"`
	PaymentMethod string           `json:"payment_method" validate:"required"`
}

type checkoutResponse struct {
	OrderID     uuid.UUID `json:"order_id"`
	Status      string    `json:"status"`
	TotalYen    int       `json:"total_yen"`
	NextAction  string    `json:"next_action"`
	RedirectURL string    `json:"redirect_url,omitempty"`
}
