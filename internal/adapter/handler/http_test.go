package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willowgrove/storefront/internal/adapter/payment"
	"github.com/willowgrove/storefront/internal/adapter/storage"
	"github.com/willowgrove/storefront/internal/core/domain"
)

func newTestServer(t *testing.T) (*httptest.Server, *storage.MemoryOrderStore) {
	t.Helper()
	store := storage.NewMemoryOrderStore()
	srv := NewServer(store, payment.NewLocal(), nil, nil, decimal.Decimal{})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func oakLine() map[string]any {
	return map[string]any{
		"product":  "p1",
		"quantity": 1,
		"price":    "49.99",
		"taxable":  true,
	}
}

func addCart(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/cart/add", map[string]any{
		"products": []any{oakLine()},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		CartID string `json:"cartId"`
	}
	decode(t, resp, &body)
	require.NotEmpty(t, body.CartID)
	return body.CartID
}

func TestAddCart(t *testing.T) {
	ts, store := newTestServer(t)
	cartID := addCart(t, ts)

	items, err := store.Cart(context.Background(), cartID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, "49.99", items[0].LineTotal.StringFixed(2))
}

func TestAddCart_Rejections(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"empty products", map[string]any{"products": []any{}}},
		{"missing product id", map[string]any{"products": []any{
			map[string]any{"quantity": 1, "price": "10.00"},
		}}},
		{"zero quantity", map[string]any{"products": []any{
			map[string]any{"product": "p1", "quantity": 0, "price": "10.00"},
		}}},
		{"negative price", map[string]any{"products": []any{
			map[string]any{"product": "p1", "quantity": 1, "price": "-1.00"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/cart/add", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	ts, store := newTestServer(t)
	cartID := addCart(t, ts)

	resp := postJSON(t, ts.URL+"/api/order/stripe/create-payment-intent", map[string]any{
		"cartId":   cartID,
		"amount":   "53.99",
		"currency": "usd",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body createIntentResponse
	decode(t, resp, &body)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.ClientSecret)
	assert.NotEmpty(t, body.PaymentIntentID)
	require.NotEmpty(t, body.OrderID)

	order, err := store.Order(context.Background(), body.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "49.99", order.Subtotal.StringFixed(2))
	assert.Equal(t, "4.00", order.Tax.StringFixed(2))
	assert.Equal(t, "53.99", order.Total.StringFixed(2))
}

func TestCreatePaymentIntent_AmountMismatch(t *testing.T) {
	ts, _ := newTestServer(t)
	cartID := addCart(t, ts)

	resp := postJSON(t, ts.URL+"/api/order/stripe/create-payment-intent", map[string]any{
		"cartId": cartID,
		"amount": "49.99", // pre-tax total, not the grand total
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "amount mismatch: expected 53.99, got 49.99", body.Error)
}

func TestCreatePaymentIntent_FallsBackToRequestProducts(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/order/stripe/create-payment-intent", map[string]any{
		"products": []any{oakLine()},
		"amount":   "53.99",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body createIntentResponse
	decode(t, resp, &body)
	assert.True(t, body.Success)
}

func TestCreatePaymentIntent_EmptyCart(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/order/stripe/create-payment-intent", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreatePaymentIntent_AmountRequired(t *testing.T) {
	// Omitting the amount must not bypass the server-side verification.
	ts, _ := newTestServer(t)
	cartID := addCart(t, ts)

	resp := postJSON(t, ts.URL+"/api/order/stripe/create-payment-intent", map[string]any{
		"cartId": cartID,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "amount is required", body.Error)
}

func TestConfirmPayment(t *testing.T) {
	ts, _ := newTestServer(t)
	cartID := addCart(t, ts)

	resp := postJSON(t, ts.URL+"/api/order/stripe/create-payment-intent", map[string]any{
		"cartId": cartID,
		"amount": "53.99",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created createIntentResponse
	decode(t, resp, &created)

	resp = postJSON(t, ts.URL+"/api/order/stripe/confirm-payment", map[string]any{
		"orderId":         created.OrderID,
		"paymentIntentId": created.PaymentIntentID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool          `json:"success"`
		Order   *domain.Order `json:"order"`
	}
	decode(t, resp, &body)
	assert.True(t, body.Success)
	require.NotNil(t, body.Order)
	assert.Equal(t, domain.OrderStatusPaid, body.Order.Status)
	assert.Equal(t, created.PaymentIntentID, body.Order.PaymentIntentID)
}

func TestConfirmPayment_UnknownOrder(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/order/stripe/confirm-payment", map[string]any{
		"orderId":         "no-such-order",
		"paymentIntentId": "pi_1",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetOrder(t *testing.T) {
	ts, _ := newTestServer(t)
	cartID := addCart(t, ts)

	resp := postJSON(t, ts.URL+"/api/order/stripe/create-payment-intent", map[string]any{
		"cartId": cartID,
		"amount": "53.99",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created createIntentResponse
	decode(t, resp, &created)

	getResp, err := http.Get(ts.URL + "/api/order/" + created.OrderID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var body struct {
		Success bool          `json:"success"`
		Order   *domain.Order `json:"order"`
	}
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&body))
	require.NotNil(t, body.Order)
	assert.Equal(t, created.OrderID, body.Order.ID)
	assert.Equal(t, domain.OrderStatusPending, body.Order.Status)
}

func TestGetOrder_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/order/no-such-order")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
