package service

import (
	"context"

	"storefront-backend/internal/domains/checkout/model"
	sessionmodel "storefront-backend/internal/domains/session/model"
	"storefront-backend/internal/shared/apperror"
)

var (
	ErrEmptyCart  = apperror.Session(apperror.CodeEmptyCart, "Your cart is empty")
	ErrPriceStale = apperror.Session(apperror.CodePriceStale, "Your cart total is being updated, please try again")
)

// SessionReader loads the request's session record
type SessionReader interface {
	Load(ctx context.Context) (*sessionmodel.Session, error)
}

// OrderBuilder assembles an Order from the checkout forms and the session
type OrderBuilder struct {
	sessions SessionReader
}

func NewOrderBuilder(sessions SessionReader) *OrderBuilder {
	return &OrderBuilder{sessions: sessions}
}

// Build validates the forms first, so a bad form never costs a network
// call, then takes the cart and price snapshot from the session as stored
func (b *OrderBuilder) Build(ctx context.Context, shipping model.ShippingForm, contact model.ContactForm, paymentSecret string) (*model.Order, error) {
	if err := model.ValidateForms(shipping, contact); err != nil {
		return nil, err
	}

	session, err := b.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		Shipping:      shipping,
		Contact:       contact,
		CartSnapshot:  session.Cart,
		PriceSnapshot: session.PriceInfo,
		PaymentSecret: paymentSecret,
	}
	if session.PromoCode.Applied && session.PromoCode.Valid {
		order.PromoCode = session.PromoCode.Code
	}
	return order, nil
}

// Snapshot returns the session when it can be checked out: at least one
// priceable line and a price snapshot from the oracle
func (b *OrderBuilder) Snapshot(ctx context.Context) (*sessionmodel.Session, error) {
	session, err := b.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(session.Cart.Lines()) == 0 {
		return nil, ErrEmptyCart
	}
	if session.PriceInfo == nil {
		return nil, ErrPriceStale
	}
	return session, nil
}
