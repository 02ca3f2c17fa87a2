package pricing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domains/cart/model"
	"storefront-backend/internal/domains/pricing"
	"storefront-backend/internal/shared/apperror"
)

type wireRequest struct {
	Products []struct {
		VariationUUID string `json:"variation_uuid"`
		Quantity      int    `json:"quantity"`
	} `json:"products"`
	DiscountCode *string `json:"discount_code"`
}

func TestRecomputeSendsWholeCartAndPromo(t *testing.T) {
	t.Parallel()

	var got wireRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"sub_total": "20.00",
			"tax_amount": "0",
			"shipping_fee": "3.99",
			"origin_shipping_fee": "3.99",
			"discount_amount": "5.00",
			"discount_type": "price_off",
			"discount_code_valid": true,
			"promo_code_discount": "5.00",
			"total_amount": "18.99",
			"currency": "GBP",
			"applied_events": [{"name": "SAVE5", "amount": "5.00"}],
			"products": [{"variation_uuid": "A", "quantity": 2, "adjusted_price": "10.00", "discount_reason": null}]
		}`))
	}))
	t.Cleanup(ts.Close)

	client := pricing.NewClient(ts.URL, time.Second, ts.Client())
	info, err := client.Recompute(context.Background(), pricing.Request{
		Lines:        []model.Line{{VariationID: "A", Quantity: 2}},
		DiscountCode: "SAVE5",
	})
	require.NoError(t, err)

	require.Len(t, got.Products, 1)
	assert.Equal(t, "A", got.Products[0].VariationUUID)
	assert.Equal(t, 2, got.Products[0].Quantity)
	require.NotNil(t, got.DiscountCode)
	assert.Equal(t, "SAVE5", *got.DiscountCode)

	// SAVE5: 2 x 10 - 5 (+ shipping per oracle)
	assert.True(t, info.DiscountAmount.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, info.TotalAmount.Equal(decimal.NewFromInt(20).Sub(decimal.NewFromInt(5)).Add(decimal.RequireFromString("3.99"))))
	assert.Equal(t, model.DiscountPriceOff, info.DiscountType)
	assert.True(t, info.DiscountCodeValid)
	require.Len(t, info.Products, 1)
	assert.True(t, info.Products[0].AdjustedPrice.Equal(decimal.NewFromInt(10)))
}

func TestRecomputeOmitsEmptyDiscountCode(t *testing.T) {
	t.Parallel()

	var raw map[string]json.RawMessage
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"total_amount": "1", "products": []}`))
	}))
	t.Cleanup(ts.Close)

	_, err := pricing.NewClient(ts.URL, time.Second, ts.Client()).Recompute(context.Background(), pricing.Request{
		Lines: []model.Line{{VariationID: "A", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.NotContains(t, raw, "discount_code")
}

func TestRecomputeFreeShippingKeepsOriginFee(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"sub_total": "30.00",
			"shipping_fee": "0",
			"origin_shipping_fee": "4.50",
			"discount_amount": "4.50",
			"discount_type": "free_shipping",
			"discount_code_valid": true,
			"total_amount": "30.00",
			"currency": "GBP",
			"products": []
		}`))
	}))
	t.Cleanup(ts.Close)

	info, err := pricing.NewClient(ts.URL, time.Second, ts.Client()).Recompute(context.Background(), pricing.Request{
		Lines:        []model.Line{{VariationID: "A", Quantity: 3}},
		DiscountCode: "FREESHIP",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DiscountFreeShipping, info.DiscountType)
	assert.True(t, info.ShippingFee.IsZero())
	assert.True(t, info.OriginShippingFee.Equal(decimal.RequireFromString("4.50")))
}

func TestRecomputeUpstreamFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"down"}`))
	}))
	t.Cleanup(ts.Close)

	_, err := pricing.NewClient(ts.URL, time.Second, ts.Client()).Recompute(context.Background(), pricing.Request{})
	require.Error(t, err)
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
}

func TestRecomputeCancelledByCaller(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		ts.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := pricing.NewClient(ts.URL, 5*time.Second, ts.Client()).Recompute(ctx, pricing.Request{})
	assert.ErrorIs(t, err, context.Canceled)
}
