package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cart "storefront-backend/internal/domains/cart/model"
	ordermodel "storefront-backend/internal/domains/order/model"
	paymentmodel "storefront-backend/internal/domains/payment/model"
)

// Order is everything checkout submits. PriceSnapshot is the session's last
// oracle answer; checkout never prices anything itself.
type Order struct {
	Shipping      ShippingForm      `json:"shipping"`
	Contact       ContactForm       `json:"contact"`
	CartSnapshot  cart.ShoppingCart `json:"cart"`
	PriceSnapshot *cart.PriceInfo   `json:"price"`
	PaymentSecret string            `json:"payment_secret,omitempty"`
	PromoCode     string            `json:"promo_code,omitempty"`
	OrderUUID     string            `json:"order_uuid,omitempty"`
}

// ToCreateRequest builds the Order API payload. Unit prices come from the
// oracle's per-line adjustments; when the oracle reported lines, a line it
// did not price (e.g. one awaiting removal) is left out.
func (o Order) ToCreateRequest(paymentMethod string) ordermodel.CreateRequest {
	adjusted := map[string]decimal.Decimal{}
	if o.PriceSnapshot != nil {
		for _, p := range o.PriceSnapshot.Products {
			adjusted[p.VariationID] = p.AdjustedPrice
		}
	}

	lines := make([]ordermodel.Line, 0, len(o.CartSnapshot))
	for _, l := range o.CartSnapshot.Lines() {
		unit, ok := adjusted[l.VariationID]
		if !ok {
			if len(adjusted) > 0 {
				continue
			}
			unit = o.CartSnapshot[l.VariationID].SalePrice
		}
		lines = append(lines, ordermodel.Line{
			VariationID: l.VariationID,
			Quantity:    l.Quantity,
			UnitPrice:   unit,
		})
	}

	return ordermodel.CreateRequest{
		Shipping:      o.Shipping.ToAddress(),
		Contact:       o.Contact.ToContact(),
		Lines:         lines,
		Price:         o.PriceSnapshot.Clone(),
		PromoCode:     o.PromoCode,
		PaymentMethod: paymentMethod,
		PaymentSecret: o.PaymentSecret,
	}
}

// Total is the amount the shopper is charged
func (o Order) Total() (decimal.Decimal, string) {
	if o.PriceSnapshot == nil {
		return decimal.Zero, ""
	}
	return o.PriceSnapshot.TotalAmount, o.PriceSnapshot.Currency
}

// ========================================
// RESPONSES
// ========================================

// Result is returned by every checkout action
type Result struct {
	AttemptID     uuid.UUID          `json:"attempt_id"`
	State         paymentmodel.State `json:"state"`
	OrderUUID     string             `json:"order_uuid,omitempty"`
	PayPalOrderID string             `json:"paypal_order_id,omitempty"`
	RedirectURL   string             `json:"redirect_url,omitempty"`
	Completed     bool               `json:"completed"`
}

func NewResult(a *paymentmodel.Attempt) *Result {
	if a == nil {
		return nil
	}
	return &Result{
		AttemptID:     a.ID,
		State:         a.State,
		OrderUUID:     a.OrderUUID,
		PayPalOrderID: a.ExternalOrderID,
		RedirectURL:   a.RedirectURL,
		Completed:     a.State == paymentmodel.StateSucceeded,
	}
}

// PaymentIntent is handed to the browser to mount the card form
type PaymentIntent struct {
	ClientSecret string          `json:"client_secret"`
	IntentID     string          `json:"payment_intent_id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// ClearSessionPayload is the checkout:clear_session task body
type ClearSessionPayload struct {
	SessionID string    `json:"session_id"`
	OrderUUID string    `json:"order_uuid"`
	PaidAt    time.Time `json:"paid_at"`
}

// ExpireAttemptsPayload is the checkout:expire_attempts task body
type ExpireAttemptsPayload struct {
	MaxAgeSeconds int64 `json:"max_age_seconds"`
}

// Task types
const (
	TypeClearSession   = "checkout:clear_session"
	TypeExpireAttempts = "checkout:expire_attempts"
)
