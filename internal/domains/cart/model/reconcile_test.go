package model_test

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domains/cart/model"
)

// reconcileInput is a random cart plus a random oracle breakdown that
// overlaps it partially
type reconcileInput struct {
	Cart        model.ShoppingCart
	Adjustments []model.ProductAdjustment
}

func (reconcileInput) Generate(r *rand.Rand, size int) reflect.Value {
	in := reconcileInput{Cart: model.ShoppingCart{}}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	n := r.Intn(size + 1)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("v%d", i)
		in.Cart[id] = model.CartItem{
			VariationID: id,
			ProductID:   fmt.Sprintf("p%d", i/2),
			Title:       id,
			SalePrice:   decimal.NewFromInt(int64(r.Intn(5000))).Shift(-2),
			RetailPrice: decimal.NewFromInt(int64(r.Intn(5000))).Shift(-2),
			Quantity:    1 + r.Intn(10),
			AddedTime:   base.Add(time.Duration(i) * time.Minute),
		}
	}

	// unique ids, some of them not in the cart
	for i := 0; i < n+2; i++ {
		if r.Intn(3) == 0 {
			continue
		}
		adj := model.ProductAdjustment{
			VariationID:   fmt.Sprintf("v%d", i),
			Quantity:      r.Intn(6),
			AdjustedPrice: decimal.NewFromInt(int64(r.Intn(5000))).Shift(-2),
		}
		if r.Intn(2) == 0 {
			reason := "promotion"
			adj.DiscountReason = &reason
		}
		in.Adjustments = append(in.Adjustments, adj)
	}

	return reflect.ValueOf(in)
}

func cartsEqual(a, b model.ShoppingCart) bool {
	if len(a) != len(b) {
		return false
	}
	for id, x := range a {
		y, ok := b[id]
		if !ok {
			return false
		}
		if x.Quantity != y.Quantity || !x.SalePrice.Equal(y.SalePrice) || !x.RetailPrice.Equal(y.RetailPrice) {
			return false
		}
		if (x.DiscountReason == nil) != (y.DiscountReason == nil) {
			return false
		}
		if x.DiscountReason != nil && *x.DiscountReason != *y.DiscountReason {
			return false
		}
	}
	return true
}

func TestReconcileNeverGrowsCart(t *testing.T) {
	f := func(in reconcileInput) bool {
		out := model.Reconcile(in.Cart, in.Adjustments)
		for id := range out {
			if _, ok := in.Cart[id]; !ok {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := func(in reconcileInput) bool {
		once := model.Reconcile(in.Cart, in.Adjustments)
		twice := model.Reconcile(once, in.Adjustments)
		return cartsEqual(once, twice)
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	f := func(in reconcileInput) bool {
		before := in.Cart.Clone()
		_ = model.Reconcile(in.Cart, in.Adjustments)
		return cartsEqual(before, in.Cart)
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestReconcileServerWinsForMentionedLines(t *testing.T) {
	f := func(in reconcileInput) bool {
		out := model.Reconcile(in.Cart, in.Adjustments)
		mentioned := map[string]bool{}

		for _, adj := range in.Adjustments {
			mentioned[adj.VariationID] = true
			if _, inCart := in.Cart[adj.VariationID]; !inCart {
				continue
			}
			item, kept := out[adj.VariationID]
			if adj.Quantity <= 0 {
				if kept {
					return false
				}
				continue
			}
			if !kept || item.Quantity != adj.Quantity || !item.SalePrice.Equal(adj.AdjustedPrice) {
				return false
			}
			if (adj.DiscountReason == nil) != (item.DiscountReason == nil) {
				return false
			}
		}

		// lines the oracle did not mention are untouched
		for id, item := range in.Cart {
			if mentioned[id] {
				continue
			}
			got, ok := out[id]
			if !ok || got.Quantity != item.Quantity || !got.SalePrice.Equal(item.SalePrice) {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestSetPriceInfoLastAppliedWins(t *testing.T) {
	f := func(totals []uint16) bool {
		if len(totals) == 0 {
			return true
		}
		state := model.NewState(model.ShoppingCart{
			"A": {VariationID: "A", Quantity: 2, SalePrice: decimal.NewFromInt(10)},
		}, model.PromoCode{}, nil)

		for _, total := range totals {
			info := &model.PriceInfo{
				TotalAmount: decimal.NewFromInt(int64(total)),
				Products: []model.ProductAdjustment{
					{VariationID: "A", Quantity: 2, AdjustedPrice: decimal.NewFromInt(10)},
				},
			}
			var err error
			state, _, err = model.SetPriceInfo(state, info)
			if err != nil {
				return false
			}
		}
		return state.PriceInfo.TotalAmount.Equal(decimal.NewFromInt(int64(totals[len(totals)-1])))
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestReconcileDropsZeroQuantityLine(t *testing.T) {
	reason := "stock_limited"
	cart := model.ShoppingCart{
		"A": {VariationID: "A", Quantity: 3, SalePrice: decimal.NewFromInt(10)},
		"B": {VariationID: "B", Quantity: 1, SalePrice: decimal.NewFromInt(7)},
	}

	out := model.Reconcile(cart, []model.ProductAdjustment{
		{VariationID: "A", Quantity: 2, AdjustedPrice: decimal.NewFromInt(8), DiscountReason: &reason},
		{VariationID: "B", Quantity: 0},
		{VariationID: "Z", Quantity: 4, AdjustedPrice: decimal.NewFromInt(1)},
	})

	require.Len(t, out, 1)
	assert.Equal(t, 2, out["A"].Quantity)
	assert.True(t, out["A"].SalePrice.Equal(decimal.NewFromInt(8)))
	require.NotNil(t, out["A"].DiscountReason)
	assert.Equal(t, "stock_limited", *out["A"].DiscountReason)
	assert.Equal(t, 3, cart["A"].Quantity)
}
