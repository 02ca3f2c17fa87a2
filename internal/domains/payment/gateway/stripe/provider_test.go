package stripe

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	stripego "github.com/stripe/stripe-go/v78"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermodel "storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/payment/gateway"
	"storefront-backend/internal/domains/payment/model"
)

type fakeIntents struct {
	newParams     *stripego.PaymentIntentParams
	confirmID     string
	confirmParams *stripego.PaymentIntentConfirmParams
	intent        *stripego.PaymentIntent
	err           error
}

func (f *fakeIntents) New(params *stripego.PaymentIntentParams) (*stripego.PaymentIntent, error) {
	f.newParams = params
	return &stripego.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret_abc"}, f.err
}

func (f *fakeIntents) Confirm(id string, params *stripego.PaymentIntentConfirmParams) (*stripego.PaymentIntent, error) {
	f.confirmID = id
	f.confirmParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

func (f *fakeIntents) Get(id string, _ *stripego.PaymentIntentParams) (*stripego.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

type fakeOrders struct {
	got ordermodel.CreateRequest
}

func (f *fakeOrders) CreateOrder(_ context.Context, req ordermodel.CreateRequest) (*ordermodel.CreateResult, error) {
	f.got = req
	return &ordermodel.CreateResult{OrderUUID: "ord-1"}, nil
}

func (f *fakeOrders) CreatePayPalOrder(context.Context, ordermodel.CreateRequest) (*ordermodel.PayPalCreateResult, error) {
	return nil, errors.New("unexpected")
}

func (f *fakeOrders) CapturePayPalOrder(context.Context, ordermodel.CaptureRequest) (*ordermodel.CaptureResult, error) {
	return nil, errors.New("unexpected")
}

func newTestProvider(t *testing.T, intents *fakeIntents) (*Provider, *fakeOrders) {
	t.Helper()
	orders := &fakeOrders{}
	p, err := NewProvider(orders, Config{Intents: intents})
	require.NoError(t, err)
	return p, orders
}

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(&fakeOrders{}, Config{})
	assert.Error(t, err)
}

func TestCreateOrderUsesOrderAPI(t *testing.T) {
	p, orders := newTestProvider(t, &fakeIntents{})

	res, err := p.CreateOrder(context.Background(), ordermodel.CreateRequest{IdempotencyKey: "att-1"})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", res.OrderUUID)
	assert.Equal(t, ProviderName, orders.got.PaymentMethod)
	assert.Equal(t, model.FlowSinglePhase, p.Flow())
}

func TestConfirmOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		intent   *stripego.PaymentIntent
		outcome  gateway.Outcome
		redirect string
		reason   string
	}{
		{
			name:    "succeeded",
			intent:  &stripego.PaymentIntent{ID: "pi_123", Status: stripego.PaymentIntentStatusSucceeded},
			outcome: gateway.OutcomeSucceeded,
		},
		{
			name: "requires action",
			intent: &stripego.PaymentIntent{
				ID:     "pi_123",
				Status: stripego.PaymentIntentStatusRequiresAction,
				NextAction: &stripego.PaymentIntentNextAction{
					RedirectToURL: &stripego.PaymentIntentNextActionRedirectToURL{URL: "https://hooks.stripe.test/3ds"},
				},
			},
			outcome:  gateway.OutcomeRequiresAction,
			redirect: "https://hooks.stripe.test/3ds",
		},
		{
			name:    "processing",
			intent:  &stripego.PaymentIntent{ID: "pi_123", Status: stripego.PaymentIntentStatusProcessing},
			outcome: gateway.OutcomePending,
		},
		{
			name: "requires payment method",
			intent: &stripego.PaymentIntent{
				ID:               "pi_123",
				Status:           stripego.PaymentIntentStatusRequiresPaymentMethod,
				LastPaymentError: &stripego.Error{Code: stripego.ErrorCodeCardDeclined},
			},
			outcome: gateway.OutcomeFailed,
			reason:  string(stripego.ErrorCodeCardDeclined),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			intents := &fakeIntents{intent: tc.intent}
			p, _ := newTestProvider(t, intents)

			res, err := p.Confirm(context.Background(), confirmRequest())
			require.NoError(t, err)
			assert.Equal(t, tc.outcome, res.Outcome)
			assert.Equal(t, tc.redirect, res.RedirectURL)
			assert.Equal(t, tc.reason, res.FailureReason)
			assert.Equal(t, "ord-1", res.OrderUUID)

			assert.Equal(t, "pi_123", intents.confirmID)
			assert.Equal(t, "https://shop.test/checkout/return?order_uuid=ord-1", *intents.confirmParams.ReturnURL)
			assert.Equal(t, "pm_card_visa", *intents.confirmParams.PaymentMethod)
			assert.Equal(t, "ord-1", intents.confirmParams.Metadata["order_uuid"])
		})
	}
}

func TestConfirmCardErrorIsDecline(t *testing.T) {
	intents := &fakeIntents{err: &stripego.Error{Type: stripego.ErrorTypeCard, Code: stripego.ErrorCodeCardDeclined}}
	p, _ := newTestProvider(t, intents)

	res, err := p.Confirm(context.Background(), confirmRequest())
	require.NoError(t, err)
	assert.Equal(t, gateway.OutcomeFailed, res.Outcome)
}

func TestConfirmAPIErrorIsReturned(t *testing.T) {
	intents := &fakeIntents{err: &stripego.Error{Type: stripego.ErrorTypeAPI}}
	p, _ := newTestProvider(t, intents)

	_, err := p.Confirm(context.Background(), confirmRequest())
	assert.Error(t, err)
}

func TestCaptureUnsupported(t *testing.T) {
	p, _ := newTestProvider(t, &fakeIntents{})
	_, err := p.Capture(context.Background(), gateway.CaptureRequest{})
	assert.ErrorIs(t, err, model.ErrUnsupportedOperation)
}

func TestCreatePaymentSecret(t *testing.T) {
	intents := &fakeIntents{}
	p, _ := newTestProvider(t, intents)

	secret, err := p.CreatePaymentSecret(context.Background(), gateway.SecretRequest{
		Amount:         decimal.RequireFromString("18.99"),
		Currency:       "GBP",
		SessionID:      "sess-1",
		IdempotencyKey: "sess-1:18.99",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123_secret_abc", secret.ClientSecret)
	assert.Equal(t, int64(1899), *intents.newParams.Amount)
	assert.Equal(t, "gbp", *intents.newParams.Currency)
}

func TestVerifyAmount(t *testing.T) {
	intents := &fakeIntents{intent: &stripego.PaymentIntent{ID: "pi_123", Amount: 1500, Currency: stripego.CurrencyGBP}}
	p, _ := newTestProvider(t, intents)
	ctx := context.Background()

	assert.NoError(t, p.VerifyAmount(ctx, "pi_123", decimal.NewFromInt(15), "GBP"))

	err := p.VerifyAmount(ctx, "pi_123", decimal.NewFromInt(25), "GBP")
	assert.ErrorIs(t, err, gateway.ErrAmountMismatch)

	err = p.VerifyAmount(ctx, "pi_123", decimal.NewFromInt(15), "EUR")
	assert.ErrorIs(t, err, gateway.ErrAmountMismatch)
}

func TestVerifyAmountAPIError(t *testing.T) {
	p, _ := newTestProvider(t, &fakeIntents{err: &stripego.Error{Type: stripego.ErrorTypeAPI}})

	err := p.VerifyAmount(context.Background(), "pi_123", decimal.NewFromInt(15), "GBP")
	require.Error(t, err)
	assert.NotErrorIs(t, err, gateway.ErrAmountMismatch)
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1899), ToMinorUnits(decimal.RequireFromString("18.99"), "gbp"))
	assert.Equal(t, int64(500), ToMinorUnits(decimal.RequireFromString("500"), "JPY"))
}

func confirmRequest() gateway.ConfirmRequest {
	return gateway.ConfirmRequest{
		OrderUUID:     "ord-1",
		IntentID:      "pi_123",
		PaymentMethod: "pm_card_visa",
		ReturnURL:     "https://shop.test/checkout/return?order_uuid=ord-1",
	}
}
