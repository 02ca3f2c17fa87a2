package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domains/checkout/command"
	"storefront-backend/internal/domains/checkout/model"
	"storefront-backend/internal/shared/apperror"
)

const attempt = "8a4f2d0e-3c1b-4e8f-9a7d-2b6c5e1f0a93"

type recorder struct {
	got string
}

func (r *recorder) PayPalCreateOrder(_ context.Context, _ command.PayPalCreateOrder) (*model.Result, error) {
	r.got = command.ActionPayPalCreateOrder
	return &model.Result{}, nil
}

func (r *recorder) PayPalCapturePayment(_ context.Context, cmd command.PayPalCapturePayment) (*model.Result, error) {
	r.got = command.ActionPayPalCapturePayment + ":" + cmd.PayPalOrderID
	return &model.Result{}, nil
}

func (r *recorder) StripeCreateOrder(_ context.Context, _ command.StripeCreateOrder) (*model.Result, error) {
	r.got = command.ActionStripeCreateOrder
	return &model.Result{}, nil
}

func TestDecodeDispatchesEachAction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"paypal create", `{"action":"paypal_create_order","attempt_id":"` + attempt + `"}`, command.ActionPayPalCreateOrder},
		{"paypal capture", `{"action":"paypal_capture_payment","attempt_id":"` + attempt + `","paypal_order_id":"PP-1"}`, "paypal_capture_payment:PP-1"},
		{"stripe explicit", `{"action":"stripe_create_order","attempt_id":"` + attempt + `"}`, command.ActionStripeCreateOrder},
		{"no action defaults to stripe", `{"attempt_id":"` + attempt + `","payment_secret":"pi_1_secret_x"}`, command.ActionStripeCreateOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := command.Decode([]byte(tt.body))
			require.NoError(t, err)

			rec := &recorder{}
			_, err = cmd.Accept(context.Background(), rec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.got)
		})
	}
}

func TestDecodeCarriesForms(t *testing.T) {
	cmd, err := command.Decode([]byte(`{
		"attempt_id": "` + attempt + `",
		"shipping": {"first_name": "Ada", "postal": "sw1a 1aa"},
		"contact": {"email": "ada@example.com", "phone": "+44 7700 900000"},
		"payment_secret": "pi_1_secret_x",
		"payment_intent_id": "pi_1"
	}`))
	require.NoError(t, err)

	stripe, ok := cmd.(command.StripeCreateOrder)
	require.True(t, ok)
	assert.Equal(t, attempt, stripe.AttemptID.String())
	assert.Equal(t, "Ada", stripe.Shipping.FirstName)
	assert.Equal(t, "ada@example.com", stripe.Contact.Email)
	assert.Equal(t, "pi_1", stripe.PaymentIntentID)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", `nope`, apperror.CodeInvalidInput},
		{"unknown action", `{"action":"klarna","attempt_id":"` + attempt + `"}`, apperror.CodeUnknownCommand},
		{"bad attempt id", `{"action":"paypal_create_order","attempt_id":"123"}`, apperror.CodeInvalidInput},
		{"missing attempt id", `{"action":"paypal_capture_payment","paypal_order_id":"PP-1"}`, apperror.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := command.Decode([]byte(tt.body))
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.KindValidation, appErr.Kind)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}
