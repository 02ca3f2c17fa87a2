package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Flow is the shape of a provider's payment protocol
type Flow string

const (
	// FlowSinglePhase: create order, then confirm the payment intent
	FlowSinglePhase Flow = "single_phase"
	// FlowTwoPhase: create order, shopper approves, then capture
	FlowTwoPhase Flow = "two_phase"
)

// =====================================================
// ATTEMPT STATES
// =====================================================

type State string

const (
	StateIdle              State = "idle"
	StateOrderCreating     State = "order_creating"
	StatePaymentConfirming State = "payment_confirming"
	StateAwaitingApproval  State = "awaiting_approval"
	StateCapturing         State = "capturing"
	StateSucceeded         State = "succeeded"
	StateFailed            State = "failed"
)

// transitions lists the legal moves. A failed attempt retries from the step
// that failed and keeps its order.
var transitions = map[State][]State{
	StateIdle:              {StateOrderCreating},
	StateOrderCreating:     {StatePaymentConfirming, StateAwaitingApproval, StateFailed},
	StatePaymentConfirming: {StateSucceeded, StateFailed},
	StateAwaitingApproval:  {StateCapturing, StateFailed},
	StateCapturing:         {StateSucceeded, StateFailed},
	StateFailed:            {StateOrderCreating, StatePaymentConfirming, StateAwaitingApproval, StateCapturing},
}

func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s State) IsTerminal() bool {
	return s == StateSucceeded
}

// =====================================================
// CHECKOUT ATTEMPT ENTITY
// =====================================================

// Attempt is one shopper's try at paying for the session cart. The id is
// the idempotency key for order creation: every retry reuses OrderUUID.
type Attempt struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SessionID string    `json:"-" db:"session_id"`
	Provider  string    `json:"provider" db:"provider"`
	Flow      Flow      `json:"flow" db:"flow"`
	State     State     `json:"state" db:"state"`

	OrderUUID string `json:"order_uuid,omitempty" db:"order_uuid"`
	// ExternalOrderID is the provider's own order id (PayPal order id)
	ExternalOrderID string `json:"external_order_id,omitempty" db:"external_order_id"`
	// IntentID is the Stripe PaymentIntent behind the payment secret
	IntentID    string `json:"intent_id,omitempty" db:"intent_id"`
	RedirectURL string `json:"redirect_url,omitempty" db:"redirect_url"`

	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	FailureReason string          `json:"failure_reason,omitempty" db:"failure_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func NewAttempt(id uuid.UUID, sessionID, provider string, flow Flow, now time.Time) *Attempt {
	return &Attempt{
		ID:        id,
		SessionID: sessionID,
		Provider:  provider,
		Flow:      flow,
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the attempt to next or returns ErrInvalidTransition
func (a *Attempt) Transition(next State, now time.Time) error {
	if !a.State.CanTransitionTo(next) {
		return NewInvalidTransitionError(a.State, next)
	}
	a.State = next
	a.UpdatedAt = now
	if next != StateFailed {
		a.FailureReason = ""
	}
	return nil
}

// Fail marks the attempt failed. Failing an already failed attempt only
// updates the reason.
func (a *Attempt) Fail(reason string, now time.Time) {
	a.State = StateFailed
	a.FailureReason = reason
	a.UpdatedAt = now
}

// CaptureState is what a two-phase capture needs: the retained order uuid
// and the provider order id supplied by the approval callback
type CaptureState struct {
	OrderUUID               string
	ExternalProviderOrderID string
}

func (c CaptureState) Ready() bool {
	return c.OrderUUID != "" && c.ExternalProviderOrderID != ""
}
