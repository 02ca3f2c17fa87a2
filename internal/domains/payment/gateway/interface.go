package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	ordermodel "storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/payment/model"
)

// =====================================================
// GATEWAY INTERFACES
// =====================================================

// Provider is one payment provider. Single-phase providers answer Confirm
// and two-phase providers answer Capture; the other returns
// model.ErrUnsupportedOperation.
type Provider interface {
	Name() string
	Flow() model.Flow

	// CreateOrder submits the order through the Order API
	CreateOrder(ctx context.Context, req ordermodel.CreateRequest) (*CreateOrderResult, error)

	// Confirm confirms the payment for an existing order
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error)

	// Capture captures an order the shopper approved at the provider
	Capture(ctx context.Context, req CaptureRequest) (*CaptureResult, error)
}

// SecretIssuer is implemented by providers that hand the browser a payment
// secret before checkout
type SecretIssuer interface {
	CreatePaymentSecret(ctx context.Context, req SecretRequest) (*Secret, error)
}

// ReturnResolver is implemented by providers that redirect the shopper away
// and back (3-D Secure and similar)
type ReturnResolver interface {
	Retrieve(ctx context.Context, intentID string) (*ConfirmResult, error)
}

// AmountVerifier is implemented by providers whose payment is opened before
// the order exists. VerifyAmount returns ErrAmountMismatch when the open
// payment is not for the given total.
type AmountVerifier interface {
	VerifyAmount(ctx context.Context, intentID string, amount decimal.Decimal, currency string) error
}

var ErrAmountMismatch = errors.New("payment amount does not match the order total")

// =====================================================
// COMMON REQUEST/RESPONSE TYPES
// =====================================================

type CreateOrderResult struct {
	OrderUUID string
	// ExternalOrderID is set by two-phase providers
	ExternalOrderID string
}

type ConfirmRequest struct {
	OrderUUID     string
	IntentID      string
	PaymentMethod string
	// ReturnURL embeds the order uuid so the return can be resolved
	ReturnURL      string
	IdempotencyKey string
}

// Outcome is the normalized result of a confirm or retrieve
type Outcome string

const (
	OutcomeSucceeded      Outcome = "succeeded"
	OutcomeRequiresAction Outcome = "requires_action"
	OutcomePending        Outcome = "pending"
	OutcomeFailed         Outcome = "failed"
)

type ConfirmResult struct {
	Outcome       Outcome
	IntentID      string
	OrderUUID     string
	RedirectURL   string
	FailureReason string
}

type CaptureRequest struct {
	OrderUUID       string
	ExternalOrderID string
}

type CaptureResult struct {
	Status    string
	Completed bool
	Raw       json.RawMessage
}

type SecretRequest struct {
	Amount         decimal.Decimal
	Currency       string
	SessionID      string
	IdempotencyKey string
}

type Secret struct {
	ClientSecret string `json:"client_secret"`
	IntentID     string `json:"intent_id"`
}
