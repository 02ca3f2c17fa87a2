package model

import (
	"errors"
	"time"

	cart "storefront-backend/internal/domains/cart/model"
)

// Session is the durable record behind the shopper's cookie credential.
// It holds the cart, the promo code and the last price snapshot.
type Session struct {
	ID        string            `json:"id"`
	Cart      cart.ShoppingCart `json:"cart"`
	PromoCode cart.PromoCode    `json:"promo_code"`
	PriceInfo *cart.PriceInfo   `json:"price_info,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// New returns an empty session
func New(id string) *Session {
	return &Session{ID: id, Cart: cart.ShoppingCart{}}
}

func (s *Session) Clone() *Session {
	out := *s
	out.Cart = s.Cart.Clone()
	out.PriceInfo = s.PriceInfo.Clone()
	return &out
}

// CacheKeySession format: "session:{sessionID}"
const CacheKeySession = "session:%s"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrAlreadyCommitted = errors.New("session handle already committed")
)
