package model

import "github.com/shopspring/decimal"

type DiscountType string

const (
	DiscountPriceOff      DiscountType = "price_off"
	DiscountFreeShipping  DiscountType = "free_shipping"
	DiscountPercentageOff DiscountType = "percentage_off"
)

// ProductAdjustment is the oracle's verdict for one cart line
type ProductAdjustment struct {
	VariationID    string          `json:"variation_id"`
	Quantity       int             `json:"quantity"`
	AdjustedPrice  decimal.Decimal `json:"adjusted_price"`
	DiscountReason *string         `json:"discount_reason,omitempty"`
}

type AppliedEvent struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// PriceInfo is always produced by the price oracle and replaced wholesale.
// Nothing in this service computes money values.
type PriceInfo struct {
	SubTotal          decimal.Decimal     `json:"sub_total"`
	TaxAmount         decimal.Decimal     `json:"tax_amount"`
	ShippingFee       decimal.Decimal     `json:"shipping_fee"`
	OriginShippingFee decimal.Decimal     `json:"origin_shipping_fee"`
	DiscountAmount    decimal.Decimal     `json:"discount_amount"`
	DiscountType      DiscountType        `json:"discount_type,omitempty"`
	DiscountCodeValid bool                `json:"discount_code_valid"`
	PromoCodeDiscount decimal.Decimal     `json:"promo_code_discount"`
	TotalAmount       decimal.Decimal     `json:"total_amount"`
	Currency          string              `json:"currency"`
	AppliedEvents     []AppliedEvent      `json:"applied_events"`
	Products          []ProductAdjustment `json:"products"`
}

func (p *PriceInfo) Clone() *PriceInfo {
	if p == nil {
		return nil
	}
	out := *p
	out.AppliedEvents = append([]AppliedEvent(nil), p.AppliedEvents...)
	out.Products = make([]ProductAdjustment, len(p.Products))
	for i, adj := range p.Products {
		out.Products[i] = adj
		if adj.DiscountReason != nil {
			reason := *adj.DiscountReason
			out.Products[i].DiscountReason = &reason
		}
	}
	return &out
}

// PromoCode is the code the shopper typed, with the last validity reported
// by the oracle
type PromoCode struct {
	Code    string `json:"code"`
	Applied bool   `json:"applied"`
	Valid   bool   `json:"valid"`
}

func (p PromoCode) IsSet() bool {
	return p.Code != ""
}
