package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/payment/gateway"
	"storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/domains/payment/repository"
	"storefront-backend/internal/shared/apperror"
	"storefront-backend/internal/shared/reqctx"
)

var (
	ErrIntentMismatch = apperror.Validation(apperror.CodeInvalidInput, "Payment does not belong to this order")
	ErrAmountChanged  = apperror.Validation(apperror.CodePaymentAmountChanged, "Your total has changed, please review it and pay again")
)

type paymentService struct {
	providers *gateway.Registry
	attempts  repository.AttemptRepository
	returnURL string
	now       func() time.Time
}

// NewPaymentService wires providers and the attempt store. returnURL is
// where single-phase providers send the shopper back; the order uuid is
// appended as a query parameter.
func NewPaymentService(providers *gateway.Registry, attempts repository.AttemptRepository, returnURL string) PaymentService {
	return &paymentService{
		providers: providers,
		attempts:  attempts,
		returnURL: returnURL,
		now:       time.Now,
	}
}

// =====================================================
// SINGLE PHASE
// =====================================================

func (s *paymentService) StartSinglePhase(ctx context.Context, req StartRequest) (*model.Attempt, error) {
	a, p, err := s.begin(ctx, req, model.FlowSinglePhase)
	if err != nil {
		return nil, err
	}

	switch a.State {
	case model.StateSucceeded, model.StateOrderCreating, model.StatePaymentConfirming:
		return a, nil
	}

	if req.IntentID != "" {
		a.IntentID = req.IntentID
	}

	// Step 1: The open payment must be for the order total
	if err := s.verifyAmount(ctx, a, p, req); err != nil {
		return a, err
	}

	// Step 2: Order (at most once per attempt)
	if err := s.ensureOrder(ctx, a, p, req); err != nil {
		return a, err
	}

	// Step 3: Confirm. One key per confirm round: a retry inside the
	// client reuses it, a retry after a decline gets a new one.
	if err := s.advance(ctx, a, model.StatePaymentConfirming); err != nil {
		return a, err
	}
	res, err := p.Confirm(ctx, gateway.ConfirmRequest{
		OrderUUID:      a.OrderUUID,
		IntentID:       a.IntentID,
		PaymentMethod:  req.PaymentMethod,
		ReturnURL:      s.returnURLFor(a.OrderUUID),
		IdempotencyKey: fmt.Sprintf("%s-%d", a.ID, a.UpdatedAt.UnixNano()),
	})
	if err != nil {
		s.fail(ctx, a, "confirm_error")
		return a, upstream(err)
	}

	// Step 4: Settle
	return s.settle(ctx, a, res)
}

func (s *paymentService) ResolveReturn(ctx context.Context, sessionID, orderUUID, intentID string) (*model.Attempt, error) {
	a, err := s.attempts.GetByOrderUUID(ctx, orderUUID)
	if err != nil {
		return nil, err
	}
	if a.SessionID != sessionID {
		return nil, model.ErrAttemptNotFound
	}
	if a.State == model.StateSucceeded {
		return a, nil
	}
	if a.IntentID != "" && intentID != a.IntentID {
		return a, ErrIntentMismatch
	}

	p, err := s.providers.Get(a.Provider)
	if err != nil {
		return a, err
	}
	resolver, ok := p.(gateway.ReturnResolver)
	if !ok {
		return a, model.ErrUnsupportedOperation
	}

	res, err := resolver.Retrieve(ctx, intentID)
	if err != nil {
		return a, upstream(err)
	}
	if res.OrderUUID != "" && res.OrderUUID != a.OrderUUID {
		return a, ErrIntentMismatch
	}

	if a.State == model.StateFailed {
		if err := s.advance(ctx, a, model.StatePaymentConfirming); err != nil {
			return a, err
		}
	}
	return s.settle(ctx, a, res)
}

// settle applies a confirm/retrieve outcome to a confirming attempt
func (s *paymentService) settle(ctx context.Context, a *model.Attempt, res *gateway.ConfirmResult) (*model.Attempt, error) {
	switch res.Outcome {
	case gateway.OutcomeSucceeded:
		a.RedirectURL = ""
		if err := s.advance(ctx, a, model.StateSucceeded); err != nil {
			return a, err
		}
		return a, nil

	case gateway.OutcomeRequiresAction, gateway.OutcomePending:
		a.RedirectURL = res.RedirectURL
		if err := s.save(ctx, a); err != nil {
			return a, err
		}
		return a, nil

	default:
		reason := res.FailureReason
		if reason == "" {
			reason = "declined"
		}
		s.fail(ctx, a, reason)
		return a, model.NewPaymentFailedError(reason)
	}
}

// =====================================================
// TWO PHASE
// =====================================================

func (s *paymentService) StartTwoPhase(ctx context.Context, req StartRequest) (*model.Attempt, error) {
	a, p, err := s.begin(ctx, req, model.FlowTwoPhase)
	if err != nil {
		return nil, err
	}

	switch a.State {
	case model.StateSucceeded, model.StateOrderCreating, model.StateAwaitingApproval, model.StateCapturing:
		return a, nil
	}

	if err := s.ensureOrder(ctx, a, p, req); err != nil {
		return a, err
	}
	if err := s.advance(ctx, a, model.StateAwaitingApproval); err != nil {
		return a, err
	}
	return a, nil
}

func (s *paymentService) Capture(ctx context.Context, sessionID string, attemptID uuid.UUID, externalOrderID string) (*model.Attempt, error) {
	a, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.SessionID != sessionID || a.Flow != model.FlowTwoPhase {
		return nil, model.ErrAttemptNotFound
	}
	if a.State == model.StateSucceeded {
		return a, nil
	}

	// both ids or no network call
	capture := model.CaptureState{OrderUUID: a.OrderUUID, ExternalProviderOrderID: externalOrderID}
	if !capture.Ready() {
		return a, model.ErrCaptureNotReady
	}
	if a.ExternalOrderID != "" && a.ExternalOrderID != externalOrderID {
		return a, model.ErrCaptureOrderMismatch
	}

	p, err := s.providers.Get(a.Provider)
	if err != nil {
		return a, err
	}

	if err := s.advance(ctx, a, model.StateCapturing); err != nil {
		return a, err
	}
	res, err := p.Capture(ctx, gateway.CaptureRequest{
		OrderUUID:       capture.OrderUUID,
		ExternalOrderID: capture.ExternalProviderOrderID,
	})
	if err != nil {
		s.fail(ctx, a, "capture_error")
		return a, upstream(err)
	}
	if !res.Completed {
		s.fail(ctx, a, "capture_status_"+res.Status)
		return a, model.NewCaptureIncompleteError(res.Status)
	}

	if err := s.advance(ctx, a, model.StateSucceeded); err != nil {
		return a, err
	}
	return a, nil
}

// =====================================================
// SECRET / MAINTENANCE
// =====================================================

func (s *paymentService) CreatePaymentSecret(ctx context.Context, req gateway.SecretRequest) (*gateway.Secret, error) {
	p, err := s.providers.ForFlow(model.FlowSinglePhase)
	if err != nil {
		return nil, err
	}
	issuer, ok := p.(gateway.SecretIssuer)
	if !ok {
		return nil, model.ErrUnsupportedOperation
	}
	secret, err := issuer.CreatePaymentSecret(ctx, req)
	if err != nil {
		return nil, upstream(err)
	}
	return secret, nil
}

func (s *paymentService) ExpireStale(ctx context.Context, maxAge time.Duration) (int, error) {
	return s.attempts.ExpireStale(ctx, s.now().Add(-maxAge))
}

// =====================================================
// HELPERS
// =====================================================

// begin loads the attempt for req.AttemptID, creating it on first use. The
// provider is the one stored on the attempt.
func (s *paymentService) begin(ctx context.Context, req StartRequest, flow model.Flow) (*model.Attempt, gateway.Provider, error) {
	configured, err := s.providers.ForFlow(flow)
	if err != nil {
		return nil, nil, err
	}

	draft := model.NewAttempt(req.AttemptID, req.SessionID, configured.Name(), flow, s.now())
	draft.Amount = req.Amount
	draft.Currency = req.Currency
	draft.IntentID = req.IntentID

	a, created, err := s.attempts.GetOrCreate(ctx, draft)
	if err != nil {
		return nil, nil, err
	}
	if a.SessionID != req.SessionID {
		return nil, nil, model.ErrAttemptNotFound
	}
	if a.Flow != flow {
		return nil, nil, model.NewInvalidTransitionError(a.State, model.StateOrderCreating)
	}

	p := configured
	if !created && a.Provider != configured.Name() {
		if p, err = s.providers.Get(a.Provider); err != nil {
			return nil, nil, err
		}
	}

	reqctx.Logger(ctx).Info().
		Str("attempt_id", a.ID.String()).
		Str("provider", a.Provider).
		Str("state", string(a.State)).
		Bool("created", created).
		Msg("checkout attempt")
	return a, p, nil
}

// verifyAmount compares the open payment with the order total: the one
// already created for this attempt, otherwise the total being submitted
func (s *paymentService) verifyAmount(ctx context.Context, a *model.Attempt, p gateway.Provider, req StartRequest) error {
	verifier, ok := p.(gateway.AmountVerifier)
	if !ok {
		return nil
	}

	amount, currency := req.Amount, req.Currency
	if a.OrderUUID != "" {
		amount, currency = a.Amount, a.Currency
	}
	if err := verifier.VerifyAmount(ctx, a.IntentID, amount, currency); err != nil {
		if errors.Is(err, gateway.ErrAmountMismatch) {
			reqctx.Logger(ctx).Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("payment amount changed")
			return ErrAmountChanged
		}
		return upstream(err)
	}
	return nil
}

// ensureOrder creates the order unless the attempt already has one
func (s *paymentService) ensureOrder(ctx context.Context, a *model.Attempt, p gateway.Provider, req StartRequest) error {
	if a.OrderUUID != "" {
		return nil
	}
	if err := s.advance(ctx, a, model.StateOrderCreating); err != nil {
		return err
	}

	order := req.Order
	order.IdempotencyKey = a.ID.String()
	res, err := p.CreateOrder(ctx, order)
	if err != nil {
		s.fail(ctx, a, "order_create_error")
		return upstream(err)
	}

	a.OrderUUID = res.OrderUUID
	a.ExternalOrderID = res.ExternalOrderID
	return nil
}

// advance transitions and persists; a concurrent writer makes it fail
func (s *paymentService) advance(ctx context.Context, a *model.Attempt, next model.State) error {
	from := a.State
	if err := a.Transition(next, s.now()); err != nil {
		return err
	}
	if err := s.attempts.Update(ctx, a, from); err != nil {
		if errors.Is(err, repository.ErrStaleAttempt) {
			return model.NewInvalidTransitionError(from, next)
		}
		return err
	}
	return nil
}

func (s *paymentService) save(ctx context.Context, a *model.Attempt) error {
	a.UpdatedAt = s.now()
	return s.attempts.Update(ctx, a, a.State)
}

// fail records a failure; a persistence error is logged, the caller
// returns the original failure
func (s *paymentService) fail(ctx context.Context, a *model.Attempt, reason string) {
	from := a.State
	a.Fail(reason, s.now())
	if err := s.attempts.Update(ctx, a, from); err != nil {
		reqctx.Logger(ctx).Error().Err(err).Str("attempt_id", a.ID.String()).Msg("failed to record payment failure")
	}
}

func (s *paymentService) returnURLFor(orderUUID string) string {
	u, err := url.Parse(s.returnURL)
	if err != nil {
		return fmt.Sprintf("%s?order_uuid=%s", s.returnURL, url.QueryEscape(orderUUID))
	}
	q := u.Query()
	q.Set("order_uuid", orderUUID)
	u.RawQuery = q.Encode()
	return u.String()
}

// upstream keeps typed errors and wraps provider failures
func upstream(err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Upstream(apperror.CodePaymentFailed, "The payment provider is unavailable, please try again", err)
}
