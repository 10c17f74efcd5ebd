package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkoutsvc "github.com/yutosugimura/saltbreeze-backend/internal/checkout"
	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
)

type stubCheckoutService struct {
	lastInput checkoutsvc.Input
	result    *checkoutsvc.Result
	err       error
}

func (s *stubCheckoutService) Checkout(_ context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func checkoutBody() map[string]any {
	return map[string]any{
		"customer": map[string]any{
			"name":          "山田花子",
			"email":         "hanako@example.com",
			"postal_code":   "150-0001",
			"region":        "東京都",
			"locality":      "渋谷区",
			"address_line1": "神宮前1-2-3",
		},
		"lines": []map[string]any{
			{"product_id": uuid.NewString(), "size": "M", "qty": 1},
		},
		"payment_method": "cash_on_delivery",
	}
}

func postCheckout(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCheckout_created(t *testing.T) {
	orderID := uuid.New()
	svc := &stubCheckoutService{result: &checkoutsvc.Result{
		OrderID:    orderID,
		Status:     enums.OrderStatusProcessing,
		TotalYen:   12800,
		NextAction: checkoutsvc.NextAction{Type: checkoutsvc.NextActionConfirmation},
	}}
	handler := Checkout(svc, controllerLogger(t))

	rec := postCheckout(t, handler, checkoutBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data struct {
			OrderID     uuid.UUID `json:"order_id"`
			Status      string    `json:"status"`
			TotalYen    int       `json:"total_yen"`
			NextAction  string    `json:"next_action"`
			RedirectURL string    `json:"redirect_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, orderID, envelope.Data.OrderID)
	assert.Equal(t, "processing", envelope.Data.Status)
	assert.Equal(t, 12800, envelope.Data.TotalYen)
	assert.Equal(t, "confirmation", envelope.Data.NextAction)
	assert.Empty(t, envelope.Data.RedirectURL)

	assert.Equal(t, enums.PaymentMethodCashOnDelivery, svc.lastInput.PaymentMethod)
	require.Len(t, svc.lastInput.Lines, 1)
	assert.Equal(t, 1, svc.lastInput.Lines[0].Qty)
}

func TestCheckout_gatewayRedirectExposed(t *testing.T) {
	svc := &stubCheckoutService{result: &checkoutsvc.Result{
		OrderID:  uuid.New(),
		Status:   enums.OrderStatusPending,
		TotalYen: 13500,
		NextAction: checkoutsvc.NextAction{
			Type:        checkoutsvc.NextActionRedirect,
			RedirectURL: "https://pay.example.com/sess_1",
		},
	}}
	handler := Checkout(svc, controllerLogger(t))

	body := checkoutBody()
	body["payment_method"] = "gateway_card"
	rec := postCheckout(t, handler, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data struct {
			NextAction  string `json:"next_action"`
			RedirectURL string `json:"redirect_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "redirect", envelope.Data.NextAction)
	assert.Equal(t, "https://pay.example.com/sess_1", envelope.Data.RedirectURL)
}

func TestCheckout_invalidPaymentMethod(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := Checkout(svc, controllerLogger(t))

	body := checkoutBody()
	body["payment_method"] = "barter"
	rec := postCheckout(t, handler, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_missingLines(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := Checkout(svc, controllerLogger(t))

	body := checkoutBody()
	delete(body, "lines")
	rec := postCheckout(t, handler, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_serviceErrorMapped(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	handler := Checkout(svc, controllerLogger(t))

	rec := postCheckout(t, handler, checkoutBody())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout_nilService(t *testing.T) {
	handler := Checkout(nil, controllerLogger(t))

	rec := postCheckout(t, handler, checkoutBody())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
