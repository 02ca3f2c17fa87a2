package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	stripego "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	ordermodel "storefront-backend/internal/domains/order/model"
	orderservice "storefront-backend/internal/domains/order/service"
	"storefront-backend/internal/domains/payment/gateway"
	"storefront-backend/internal/domains/payment/model"
	"storefront-backend/pkg/logger"
)

const (
	ProviderName = "stripe"

	metadataOrderUUID = "order_uuid"
	metadataSessionID = "session_id"
)

// paymentIntentAPI is the part of the stripe-go PaymentIntents client in use
type paymentIntentAPI interface {
	New(params *stripego.PaymentIntentParams) (*stripego.PaymentIntent, error)
	Confirm(id string, params *stripego.PaymentIntentConfirmParams) (*stripego.PaymentIntent, error)
	Get(id string, params *stripego.PaymentIntentParams) (*stripego.PaymentIntent, error)
}

type Config struct {
	APIKey string
	// Intents replaces the live Stripe client in tests
	Intents paymentIntentAPI
}

// Provider is the single-phase flow: the Order API creates the order, then
// the PaymentIntent behind the browser's payment secret is confirmed.
type Provider struct {
	orders  orderservice.API
	intents paymentIntentAPI
}

func NewProvider(orders orderservice.API, cfg Config) (*Provider, error) {
	intents := cfg.Intents
	if intents == nil {
		apiKey := strings.TrimSpace(cfg.APIKey)
		if apiKey == "" {
			return nil, errors.New("stripe: api key is required")
		}
		intents = client.New(apiKey, nil).PaymentIntents
	}
	return &Provider{orders: orders, intents: intents}, nil
}

var (
	_ gateway.Provider       = (*Provider)(nil)
	_ gateway.SecretIssuer   = (*Provider)(nil)
	_ gateway.ReturnResolver = (*Provider)(nil)
	_ gateway.AmountVerifier = (*Provider)(nil)
)

func (p *Provider) Name() string     { return ProviderName }
func (p *Provider) Flow() model.Flow { return model.FlowSinglePhase }

func (p *Provider) CreateOrder(ctx context.Context, req ordermodel.CreateRequest) (*gateway.CreateOrderResult, error) {
	req.PaymentMethod = ProviderName
	res, err := p.orders.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	return &gateway.CreateOrderResult{OrderUUID: res.OrderUUID}, nil
}

// Confirm confirms the PaymentIntent and tags it with the order uuid
func (p *Provider) Confirm(ctx context.Context, req gateway.ConfirmRequest) (*gateway.ConfirmResult, error) {
	if req.IntentID == "" {
		return nil, errors.New("stripe: payment intent id is required")
	}

	params := &stripego.PaymentIntentConfirmParams{
		ReturnURL: stripego.String(req.ReturnURL),
	}
	params.Context = ctx
	if req.PaymentMethod != "" {
		params.PaymentMethod = stripego.String(req.PaymentMethod)
	}
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	params.Metadata = map[string]string{metadataOrderUUID: req.OrderUUID}

	intent, err := p.intents.Confirm(req.IntentID, params)
	if err != nil {
		var stripeErr *stripego.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripego.ErrorTypeCard {
			// card errors are declines
			return &gateway.ConfirmResult{
				Outcome:       gateway.OutcomeFailed,
				IntentID:      req.IntentID,
				OrderUUID:     req.OrderUUID,
				FailureReason: string(stripeErr.Code),
			}, nil
		}
		return nil, fmt.Errorf("stripe: confirm payment intent: %w", err)
	}

	logger.Info("stripe payment intent confirmed", map[string]interface{}{
		"payment_intent": intent.ID,
		"status":         string(intent.Status),
		"order_uuid":     req.OrderUUID,
	})

	out := fromIntent(intent)
	if out.OrderUUID == "" {
		out.OrderUUID = req.OrderUUID
	}
	return out, nil
}

func (p *Provider) Capture(context.Context, gateway.CaptureRequest) (*gateway.CaptureResult, error) {
	return nil, model.ErrUnsupportedOperation
}

// CreatePaymentSecret opens a PaymentIntent for the priced total
func (p *Provider) CreatePaymentSecret(ctx context.Context, req gateway.SecretRequest) (*gateway.Secret, error) {
	currency := strings.ToLower(req.Currency)
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(ToMinorUnits(req.Amount, currency)),
		Currency: stripego.String(currency),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	if req.SessionID != "" {
		params.AddMetadata(metadataSessionID, req.SessionID)
	}

	intent, err := p.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return &gateway.Secret{ClientSecret: intent.ClientSecret, IntentID: intent.ID}, nil
}

// Retrieve reads the PaymentIntent after the shopper returns from a redirect
func (p *Provider) Retrieve(ctx context.Context, intentID string) (*gateway.ConfirmResult, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx
	intent, err := p.intents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get payment intent: %w", err)
	}
	return fromIntent(intent), nil
}

// VerifyAmount checks the PaymentIntent opened on the payment step against
// the total the order is created with
func (p *Provider) VerifyAmount(ctx context.Context, intentID string, amount decimal.Decimal, currency string) error {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx
	intent, err := p.intents.Get(intentID, params)
	if err != nil {
		return fmt.Errorf("stripe: get payment intent: %w", err)
	}

	want := ToMinorUnits(amount, currency)
	if intent.Amount != want || !strings.EqualFold(string(intent.Currency), currency) {
		return fmt.Errorf("%w: intent %s is %d %s, order is %d %s",
			gateway.ErrAmountMismatch, intentID, intent.Amount, intent.Currency, want, strings.ToLower(currency))
	}
	return nil
}

func fromIntent(intent *stripego.PaymentIntent) *gateway.ConfirmResult {
	out := &gateway.ConfirmResult{
		IntentID:  intent.ID,
		OrderUUID: intent.Metadata[metadataOrderUUID],
	}

	switch intent.Status {
	case stripego.PaymentIntentStatusSucceeded:
		out.Outcome = gateway.OutcomeSucceeded
	case stripego.PaymentIntentStatusRequiresAction:
		out.Outcome = gateway.OutcomeRequiresAction
		if intent.NextAction != nil && intent.NextAction.RedirectToURL != nil {
			out.RedirectURL = intent.NextAction.RedirectToURL.URL
		}
	case stripego.PaymentIntentStatusProcessing:
		out.Outcome = gateway.OutcomePending
	default:
		out.Outcome = gateway.OutcomeFailed
		out.FailureReason = string(intent.Status)
		if intent.LastPaymentError != nil && intent.LastPaymentError.Code != "" {
			out.FailureReason = string(intent.LastPaymentError.Code)
		}
	}
	return out
}

var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// ToMinorUnits converts an amount to the integer Stripe expects
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}
