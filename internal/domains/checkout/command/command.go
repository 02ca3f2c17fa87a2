// Package command defines the checkout actions as a closed set of variants
// dispatched through Visitor.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/checkout/model"
	"storefront-backend/internal/shared/apperror"
)

const (
	ActionPayPalCreateOrder    = "paypal_create_order"
	ActionPayPalCapturePayment = "paypal_capture_payment"
	ActionStripeCreateOrder    = "stripe_create_order"
)

type Command interface {
	Accept(ctx context.Context, v Visitor) (*model.Result, error)
	Action() string
}

type Visitor interface {
	PayPalCreateOrder(ctx context.Context, cmd PayPalCreateOrder) (*model.Result, error)
	PayPalCapturePayment(ctx context.Context, cmd PayPalCapturePayment) (*model.Result, error)
	StripeCreateOrder(ctx context.Context, cmd StripeCreateOrder) (*model.Result, error)
}

// =====================================================
// VARIANTS
// =====================================================

// PayPalCreateOrder creates our order and the PayPal order the shopper
// approves in the PayPal popup
type PayPalCreateOrder struct {
	AttemptID uuid.UUID          `json:"attempt_id"`
	Shipping  model.ShippingForm `json:"shipping"`
	Contact   model.ContactForm  `json:"contact"`
}

// PayPalCapturePayment runs after the approval callback
type PayPalCapturePayment struct {
	AttemptID     uuid.UUID `json:"attempt_id"`
	PayPalOrderID string    `json:"paypal_order_id"`
}

// StripeCreateOrder creates the order and confirms the card payment
type StripeCreateOrder struct {
	AttemptID       uuid.UUID          `json:"attempt_id"`
	Shipping        model.ShippingForm `json:"shipping"`
	Contact         model.ContactForm  `json:"contact"`
	PaymentSecret   string             `json:"payment_secret"`
	PaymentIntentID string             `json:"payment_intent_id"`
	PaymentMethod   string             `json:"payment_method"`
}

func (c PayPalCreateOrder) Accept(ctx context.Context, v Visitor) (*model.Result, error) {
	return v.PayPalCreateOrder(ctx, c)
}
func (c PayPalCapturePayment) Accept(ctx context.Context, v Visitor) (*model.Result, error) {
	return v.PayPalCapturePayment(ctx, c)
}
func (c StripeCreateOrder) Accept(ctx context.Context, v Visitor) (*model.Result, error) {
	return v.StripeCreateOrder(ctx, c)
}

func (PayPalCreateOrder) Action() string    { return ActionPayPalCreateOrder }
func (PayPalCapturePayment) Action() string { return ActionPayPalCapturePayment }
func (StripeCreateOrder) Action() string    { return ActionStripeCreateOrder }

// =====================================================
// DECODING
// =====================================================

type envelope struct {
	Action string `json:"action"`
}

// Decode reads {"action": "...", ...}. A missing action means
// stripe_create_order, the card form's submit.
func Decode(raw []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "request body must be a JSON object")
	}

	action := strings.TrimSpace(env.Action)
	if action == "" {
		action = ActionStripeCreateOrder
	}

	var (
		cmd       Command
		attemptID uuid.UUID
		err       error
	)
	switch action {
	case ActionPayPalCreateOrder:
		var c PayPalCreateOrder
		err = json.Unmarshal(raw, &c)
		cmd, attemptID = c, c.AttemptID
	case ActionPayPalCapturePayment:
		var c PayPalCapturePayment
		err = json.Unmarshal(raw, &c)
		cmd, attemptID = c, c.AttemptID
	case ActionStripeCreateOrder:
		var c StripeCreateOrder
		err = json.Unmarshal(raw, &c)
		cmd, attemptID = c, c.AttemptID
	default:
		return nil, apperror.Validation(apperror.CodeUnknownCommand, fmt.Sprintf("unknown checkout action %q", action))
	}
	if err != nil {
		return nil, apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("invalid %s payload", action))
	}
	if attemptID == uuid.Nil {
		return nil, apperror.ValidationFields("attempt_id is required", map[string]string{
			"attempt_id": "must be a UUID generated once per checkout attempt",
		})
	}
	return cmd, nil
}
