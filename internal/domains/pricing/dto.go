package pricing

import (
	"github.com/shopspring/decimal"

	"storefront-backend/internal/domains/cart/model"
)

// Request is what the sync controller asks the oracle to price
type Request struct {
	Lines        []model.Line
	DiscountCode string
}

// =====================================================
// WIRE FORMAT
// =====================================================

type productLine struct {
	VariationUUID string `json:"variation_uuid"`
	Quantity      int    `json:"quantity"`
}

type recomputeRequest struct {
	Products     []productLine `json:"products"`
	DiscountCode string        `json:"discount_code,omitempty"`
}

type productAdjustment struct {
	VariationUUID  string          `json:"variation_uuid"`
	Quantity       int             `json:"quantity"`
	AdjustedPrice  decimal.Decimal `json:"adjusted_price"`
	DiscountReason *string         `json:"discount_reason"`
}

type appliedEvent struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type recomputeResponse struct {
	SubTotal          decimal.Decimal     `json:"sub_total"`
	TaxAmount         decimal.Decimal     `json:"tax_amount"`
	ShippingFee       decimal.Decimal     `json:"shipping_fee"`
	OriginShippingFee decimal.Decimal     `json:"origin_shipping_fee"`
	DiscountAmount    decimal.Decimal     `json:"discount_amount"`
	DiscountType      string              `json:"discount_type"`
	DiscountCodeValid bool                `json:"discount_code_valid"`
	PromoCodeDiscount decimal.Decimal     `json:"promo_code_discount"`
	TotalAmount       decimal.Decimal     `json:"total_amount"`
	Currency          string              `json:"currency"`
	AppliedEvents     []appliedEvent      `json:"applied_events"`
	Products          []productAdjustment `json:"products"`
}

func toWire(req Request) recomputeRequest {
	out := recomputeRequest{
		Products:     make([]productLine, 0, len(req.Lines)),
		DiscountCode: req.DiscountCode,
	}
	for _, line := range req.Lines {
		out.Products = append(out.Products, productLine{
			VariationUUID: line.VariationID,
			Quantity:      line.Quantity,
		})
	}
	return out
}

// toPriceInfo copies the response as is. Fees are never derived here, so a
// free_shipping discount keeps the oracle's origin shipping fee.
func (r recomputeResponse) toPriceInfo() *model.PriceInfo {
	info := &model.PriceInfo{
		SubTotal:          r.SubTotal,
		TaxAmount:         r.TaxAmount,
		ShippingFee:       r.ShippingFee,
		OriginShippingFee: r.OriginShippingFee,
		DiscountAmount:    r.DiscountAmount,
		DiscountType:      model.DiscountType(r.DiscountType),
		DiscountCodeValid: r.DiscountCodeValid,
		PromoCodeDiscount: r.PromoCodeDiscount,
		TotalAmount:       r.TotalAmount,
		Currency:          r.Currency,
		AppliedEvents:     make([]model.AppliedEvent, 0, len(r.AppliedEvents)),
		Products:          make([]model.ProductAdjustment, 0, len(r.Products)),
	}

	for _, ev := range r.AppliedEvents {
		info.AppliedEvents = append(info.AppliedEvents, model.AppliedEvent{
			Name:        ev.Name,
			Description: ev.Description,
			Amount:      ev.Amount,
		})
	}
	for _, p := range r.Products {
		info.Products = append(info.Products, model.ProductAdjustment{
			VariationID:    p.VariationUUID,
			Quantity:       p.Quantity,
			AdjustedPrice:  p.AdjustedPrice,
			DiscountReason: p.DiscountReason,
		})
	}

	return info
}
