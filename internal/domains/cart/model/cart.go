package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of the shopping cart, keyed by VariationID
type CartItem struct {
	VariationID    string          `json:"variation_id"`
	ProductID      string          `json:"product_id"`
	Title          string          `json:"title"`
	Image          string          `json:"image,omitempty"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	Quantity       int             `json:"quantity"`
	PurchaseLimit  int             `json:"purchase_limit"` // 0 = MaxItemsPerProduct
	DiscountReason *string         `json:"discount_reason,omitempty"`
	AddedTime      time.Time       `json:"added_time"`
}

// Limit returns the effective per-item quantity ceiling
func (i CartItem) Limit() int {
	if i.PurchaseLimit > 0 && i.PurchaseLimit < MaxItemsPerProduct {
		return i.PurchaseLimit
	}
	return MaxItemsPerProduct
}

func (i CartItem) clone() CartItem {
	out := i
	if i.DiscountReason != nil {
		reason := *i.DiscountReason
		out.DiscountReason = &reason
	}
	return out
}

// ShoppingCart maps VariationID → CartItem. An empty cart is a meaningful
// state: the empty-cart view is shown and price state is cleared.
type ShoppingCart map[string]CartItem

func (c ShoppingCart) Clone() ShoppingCart {
	out := make(ShoppingCart, len(c))
	for k, v := range c {
		out[k] = v.clone()
	}
	return out
}

func (c ShoppingCart) IsEmpty() bool {
	return len(c) == 0
}

// Count is the badge value: total quantity across lines
func (c ShoppingCart) Count() int {
	total := 0
	for _, item := range c {
		total += item.Quantity
	}
	return total
}

// Items returns lines in display order (oldest first)
func (c ShoppingCart) Items() []CartItem {
	items := make([]CartItem, 0, len(c))
	for _, item := range c {
		items = append(items, item.clone())
	}
	sort.Slice(items, func(a, b int) bool {
		if !items[a].AddedTime.Equal(items[b].AddedTime) {
			return items[a].AddedTime.Before(items[b].AddedTime)
		}
		return items[a].VariationID < items[b].VariationID
	})
	return items
}

// Line is what the price oracle needs to know about a cart line
type Line struct {
	VariationID string
	Quantity    int
}

// Lines returns the priceable lines sorted by VariationID. Lines showing
// quantity 0 (awaiting removal confirmation) are left out.
func (c ShoppingCart) Lines() []Line {
	lines := make([]Line, 0, len(c))
	for id, item := range c {
		if item.Quantity <= 0 {
			continue
		}
		lines = append(lines, Line{VariationID: id, Quantity: item.Quantity})
	}
	sort.Slice(lines, func(a, b int) bool {
		return lines[a].VariationID < lines[b].VariationID
	})
	return lines
}
