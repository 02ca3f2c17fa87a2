package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ordermodel "storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/payment/gateway"
	"storefront-backend/internal/domains/payment/model"
)

// StartRequest opens or resumes a checkout attempt
type StartRequest struct {
	// AttemptID is chosen by the browser and reused across retries
	AttemptID uuid.UUID
	SessionID string
	Order     ordermodel.CreateRequest
	Amount    decimal.Decimal
	Currency  string
	// IntentID and PaymentMethod are only used by single-phase providers
	IntentID      string
	PaymentMethod string
}

// =====================================================
// PAYMENT SERVICE INTERFACE
// =====================================================
type PaymentService interface {
	// StartSinglePhase creates the order at most once, then confirms the
	// payment. A requires-action outcome leaves the attempt confirming with
	// a redirect URL.
	StartSinglePhase(ctx context.Context, req StartRequest) (*model.Attempt, error)

	// StartTwoPhase creates the order and the provider order, leaving the
	// attempt awaiting the shopper's approval
	StartTwoPhase(ctx context.Context, req StartRequest) (*model.Attempt, error)

	// Capture finishes a two-phase attempt with the id from the approval
	// callback. Only a COMPLETED capture succeeds.
	Capture(ctx context.Context, sessionID string, attemptID uuid.UUID, externalOrderID string) (*model.Attempt, error)

	// ResolveReturn settles a single-phase attempt after a provider redirect
	ResolveReturn(ctx context.Context, sessionID, orderUUID, intentID string) (*model.Attempt, error)

	// CreatePaymentSecret initializes the single-phase provider's secret
	CreatePaymentSecret(ctx context.Context, req gateway.SecretRequest) (*gateway.Secret, error)

	// ExpireStale fails attempts left unfinished for longer than maxAge
	ExpireStale(ctx context.Context, maxAge time.Duration) (int, error)
}
