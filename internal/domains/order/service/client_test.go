package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cart "storefront-backend/internal/domains/cart/model"
	"storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/order/service"
	"storefront-backend/internal/shared/apperror"
)

func sampleRequest() model.CreateRequest {
	return model.CreateRequest{
		IdempotencyKey: "attempt-1",
		Shipping:       model.Address{FirstName: "Ada", LastName: "Lovelace", Line1: "1 High St", City: "London", Postal: "N1 9GU", Country: "GB"},
		Contact:        model.Contact{Email: "ada@example.com", Phone: "+44 7700 900123"},
		Lines:          []model.Line{{VariationID: "A", Quantity: 2, UnitPrice: decimal.NewFromInt(10)}},
		Price:          &cart.PriceInfo{TotalAmount: decimal.NewFromInt(15), Currency: "GBP"},
		PromoCode:      "SAVE5",
		PaymentMethod:  "stripe",
	}
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		require.Equal(t, "attempt-1", r.Header.Get("Idempotency-Key"))

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `"SAVE5"`, string(body["discount_code"]))
		assert.Contains(t, string(body["products"]), `"variation_uuid":"A"`)

		_, _ = w.Write([]byte(`{"order_uuid":"ord-1"}`))
	}))
	t.Cleanup(ts.Close)

	got, err := service.NewClient(ts.URL, time.Second, ts.Client()).CreateOrder(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "ord-1", got.OrderUUID)
}

func TestCreateOrderWithoutUUIDIsUpstreamError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(ts.Close)

	_, err := service.NewClient(ts.URL, time.Second, ts.Client()).CreateOrder(context.Background(), sampleRequest())
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
	assert.True(t, errors.Is(err, model.ErrMissingOrderUUID))
}

func TestCreatePayPalOrder(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/paypal", r.URL.Path)
		_, _ = w.Write([]byte(`{"order_uuid":"ord-2","paypal_order_id":"PP-9"}`))
	}))
	t.Cleanup(ts.Close)

	got, err := service.NewClient(ts.URL+"/", time.Second, ts.Client()).CreatePayPalOrder(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "ord-2", got.OrderUUID)
	assert.Equal(t, "PP-9", got.PayPalOrderID)
}

func TestCapturePayPalOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		completed bool
	}{
		{name: "completed", body: `{"capture_response":{"id":"CAP-1","status":"COMPLETED"}}`, completed: true},
		{name: "pending", body: `{"capture_response":{"id":"CAP-1","status":"PENDING"}}`},
		{name: "missing status", body: `{"capture_response":{}}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body model.CaptureRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				require.Equal(t, "PP-9", body.PayPalOrderID)
				require.Equal(t, "ord-2", body.OrderUUID)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(ts.Close)

			got, err := service.NewClient(ts.URL, time.Second, ts.Client()).
				CapturePayPalOrder(context.Background(), model.CaptureRequest{PayPalOrderID: "PP-9", OrderUUID: "ord-2"})
			require.NoError(t, err)
			assert.Equal(t, tc.completed, got.Completed())
			assert.NotEmpty(t, got.Raw)
		})
	}
}

func TestCaptureNeedsBothIDs(t *testing.T) {
	t.Parallel()

	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	t.Cleanup(ts.Close)

	client := service.NewClient(ts.URL, time.Second, ts.Client())
	_, err := client.CapturePayPalOrder(context.Background(), model.CaptureRequest{PayPalOrderID: "PP-9"})
	assert.ErrorIs(t, err, model.ErrMissingCaptureIDs)
	_, err = client.CapturePayPalOrder(context.Background(), model.CaptureRequest{OrderUUID: "ord-2"})
	assert.ErrorIs(t, err, model.ErrMissingCaptureIDs)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestOrderAPIRejection(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	_, err := service.NewClient(ts.URL, time.Second, ts.Client()).CreateOrder(context.Background(), sampleRequest())
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
}
