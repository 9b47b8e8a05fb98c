package paypal

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePayPal struct {
	*httptest.Server
	tokenCalls atomic.Int32
	lastBody   map[string]any
}

func newFakePayPal(t *testing.T) *fakePayPal {
	t.Helper()
	f := &fakePayPal{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})

	requireBearer := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return false
		}
		f.lastBody = map[string]any{}
		json.NewDecoder(r.Body).Decode(&f.lastBody)
		return true
	}

	mux.HandleFunc("POST /v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if !requireBearer(w, r) {
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"ORDER-1","status":"CREATED"}`))
	})

	mux.HandleFunc("POST /v1/payments/payment", func(w http.ResponseWriter, r *http.Request) {
		if !requireBearer(w, r) {
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"PAY-1","state":"created","links":[
			{"href":"https://paypal.test/self","rel":"self"},
			{"href":"https://paypal.test/approve","rel":"approval_url","method":"REDIRECT"}]}`))
	})

	mux.HandleFunc("POST /v1/payments/payment/{id}/execute", func(w http.ResponseWriter, r *http.Request) {
		if !requireBearer(w, r) {
			return
		}
		if r.PathValue("id") == "PAY-BAD" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"name":"PAYMENT_NOT_APPROVED_FOR_EXECUTION"}`))
			return
		}
		w.Write([]byte(`{"id":"` + r.PathValue("id") + `","state":"approved",
			"payer":{"payment_method":"paypal","payer_info":{"email":"buyer@example.com","first_name":"Ada","last_name":"Lovelace"}},
			"transactions":[{"amount":{"total":"64.80","currency":"USD"},
				"item_list":{"items":[{"name":"Saffron","sku":"saffron","price":"24.99","currency":"USD","quantity":"2"}],
				"shipping_address":{"recipient_name":"Ada Lovelace","line1":"1 Main St","city":"Springfield","state":"IL","postal_code":"62701","country_code":"US"}}}]}`))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newTestClient(f *fakePayPal, secret string) *Client {
	return NewClient(Config{ClientID: "id", ClientSecret: secret, BaseURL: f.URL}, zap.NewNop())
}

func TestBaseURLFor(t *testing.T) {
	assert.Equal(t, SandboxBaseURL, BaseURLFor(Config{}))
	assert.Equal(t, SandboxBaseURL, BaseURLFor(Config{Mode: "sandbox"}))
	assert.Equal(t, LiveBaseURL, BaseURLFor(Config{Mode: "live"}))
	assert.Equal(t, "http://localhost:9999", BaseURLFor(Config{Mode: "live", BaseURL: "http://localhost:9999/"}))
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(Config{}, zap.NewNop())
	assert.False(t, c.Configured())

	_, err := c.CreateOrder(t.Context(), &OrderRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.ExecutePayment(t.Context(), "PAY-1", "PAYER")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_TokenIsFetchedOnceAndReused(t *testing.T) {
	f := newFakePayPal(t)
	c := newTestClient(f, "secret")

	order, err := c.CreateOrder(t.Context(), &OrderRequest{Intent: "CAPTURE"})
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", order.ID)
	assert.Equal(t, "CAPTURE", f.lastBody["intent"])

	payment, err := c.CreatePayment(t.Context(), &PaymentRequest{Intent: "sale"})
	require.NoError(t, err)
	assert.Equal(t, "PAY-1", payment.ID)
	assert.Equal(t, "https://paypal.test/approve", payment.ApprovalURL())

	assert.Equal(t, int32(1), f.tokenCalls.Load())
}

func TestClient_ExecutePayment(t *testing.T) {
	f := newFakePayPal(t)
	c := newTestClient(f, "secret")

	payment, err := c.ExecutePayment(t.Context(), "PAY-9", "PAYER-1")
	require.NoError(t, err)
	assert.Equal(t, "PAYER-1", f.lastBody["payer_id"])
	assert.Equal(t, "approved", payment.State)
	require.Len(t, payment.Transactions, 1)
	tx := payment.Transactions[0]
	assert.Equal(t, "64.80", tx.Amount.Total)
	require.NotNil(t, tx.ItemList)
	assert.Equal(t, "saffron", tx.ItemList.Items[0].SKU)
	assert.Equal(t, "Springfield", tx.ItemList.ShippingAddress.City)
	assert.Equal(t, "buyer@example.com", payment.Payer.PayerInfo.Email)
	assert.True(t, json.Valid(payment.Raw))
}

func TestClient_UpstreamErrors(t *testing.T) {
	f := newFakePayPal(t)

	_, err := newTestClient(f, "secret").ExecutePayment(t.Context(), "PAY-BAD", "PAYER-1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.JSONEq(t, `{"name":"PAYMENT_NOT_APPROVED_FOR_EXECUTION"}`, string(apiErr.Body))

	_, err = newTestClient(f, "wrong").CreateOrder(t.Context(), &OrderRequest{})
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
