package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	cart "storefront-backend/internal/domains/cart/model"
)

// CaptureStatusCompleted is the only capture status that counts as paid
const CaptureStatusCompleted = "COMPLETED"

// Address is the shipping address as the Order API expects it
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Line1     string `json:"line1"`
	Line2     string `json:"line2,omitempty"`
	City      string `json:"city"`
	County    string `json:"county,omitempty"`
	Postal    string `json:"postal"`
	Country   string `json:"country"`
}

type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Line struct {
	VariationID string          `json:"variation_uuid"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// =====================================================
// REQUESTS / RESPONSES
// =====================================================

// CreateRequest is one order submission. IdempotencyKey is the checkout
// attempt id, so a retried submission never creates a second order.
type CreateRequest struct {
	IdempotencyKey string          `json:"-"`
	Shipping       Address         `json:"shipping"`
	Contact        Contact         `json:"contact"`
	Lines          []Line          `json:"products"`
	Price          *cart.PriceInfo `json:"price"`
	PromoCode      string          `json:"discount_code,omitempty"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentSecret  string          `json:"payment_secret,omitempty"`
}

type CreateResult struct {
	OrderUUID string `json:"order_uuid"`
}

type PayPalCreateResult struct {
	OrderUUID     string `json:"order_uuid"`
	PayPalOrderID string `json:"paypal_order_id"`
}

type CaptureRequest struct {
	PayPalOrderID string `json:"order_id"`
	OrderUUID     string `json:"order_uuid"`
}

// CaptureResult keeps the provider's raw capture response for auditing
type CaptureResult struct {
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"capture_response"`
}

func (r CaptureResult) Completed() bool {
	return r.Status == CaptureStatusCompleted
}
