package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/domains/checkout/command"
	"storefront-backend/internal/domains/checkout/model"
	"storefront-backend/internal/domains/payment/gateway"
	paymentmodel "storefront-backend/internal/domains/payment/model"
	paymentsvc "storefront-backend/internal/domains/payment/service"
	"storefront-backend/internal/infrastructure/queue"
	"storefront-backend/internal/shared/apperror"
	"storefront-backend/internal/shared/reqctx"
)

const paymentMethodPayPal = "paypal"

type CheckoutService struct {
	builder    *OrderBuilder
	payments   paymentsvc.PaymentService
	tasks      TaskEnqueuer
	workspaces WorkspaceResetter
	now        func() time.Time
}

var _ command.Visitor = (*CheckoutService)(nil)

func NewCheckoutService(
	builder *OrderBuilder,
	payments paymentsvc.PaymentService,
	tasks TaskEnqueuer,
	workspaces WorkspaceResetter,
) *CheckoutService {
	return &CheckoutService{
		builder:    builder,
		payments:   payments,
		tasks:      tasks,
		workspaces: workspaces,
		now:        time.Now,
	}
}

func (s *CheckoutService) Execute(ctx context.Context, cmd command.Command) (*model.Result, error) {
	reqctx.Logger(ctx).Info().Str("action", cmd.Action()).Msg("checkout action")
	return cmd.Accept(ctx, s)
}

// =====================================================
// STRIPE (single phase)
// =====================================================

func (s *CheckoutService) StripeCreateOrder(ctx context.Context, cmd command.StripeCreateOrder) (*model.Result, error) {
	sessionID, err := reqctx.SessionID(ctx)
	if err != nil {
		return nil, err
	}

	// Step 1: Payment fields, then forms and snapshot
	missing := map[string]string{}
	if strings.TrimSpace(cmd.PaymentSecret) == "" {
		missing["payment_secret"] = "payment is not initialized"
	}
	if strings.TrimSpace(cmd.PaymentIntentID) == "" {
		missing["payment_intent_id"] = "payment is not initialized"
	}
	if len(missing) > 0 {
		return nil, apperror.ValidationFields("Payment details are missing", missing)
	}

	order, err := s.builder.Build(ctx, cmd.Shipping, cmd.Contact, cmd.PaymentSecret)
	if err != nil {
		return nil, err
	}

	// Step 2: Order + confirm
	amount, currency := order.Total()
	started := s.now()
	attempt, err := s.payments.StartSinglePhase(ctx, paymentsvc.StartRequest{
		AttemptID:     cmd.AttemptID,
		SessionID:     sessionID,
		Order:         order.ToCreateRequest(cmd.PaymentMethod),
		Amount:        amount,
		Currency:      currency,
		IntentID:      cmd.PaymentIntentID,
		PaymentMethod: cmd.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	// Step 3: Paid orders clear the session
	s.completeIfPaid(ctx, sessionID, attempt, started)
	return model.NewResult(attempt), nil
}

// PaymentIntent creates (or reuses, for an unchanged total) the provider
// payment for the session's price snapshot
func (s *CheckoutService) PaymentIntent(ctx context.Context) (*model.PaymentIntent, error) {
	sessionID, err := reqctx.SessionID(ctx)
	if err != nil {
		return nil, err
	}
	session, err := s.builder.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	amount := session.PriceInfo.TotalAmount
	currency := session.PriceInfo.Currency
	secret, err := s.payments.CreatePaymentSecret(ctx, gateway.SecretRequest{
		Amount:         amount,
		Currency:       currency,
		SessionID:      sessionID,
		IdempotencyKey: fmt.Sprintf("%s:%s:%s", sessionID, amount.String(), currency),
	})
	if err != nil {
		return nil, err
	}

	return &model.PaymentIntent{
		ClientSecret: secret.ClientSecret,
		IntentID:     secret.IntentID,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func (s *CheckoutService) ResolveReturn(ctx context.Context, orderUUID, intentID string) (*model.Result, error) {
	sessionID, err := reqctx.SessionID(ctx)
	if err != nil {
		return nil, err
	}
	if orderUUID == "" || intentID == "" {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "order_uuid and payment_intent are required")
	}

	started := s.now()
	attempt, err := s.payments.ResolveReturn(ctx, sessionID, orderUUID, intentID)
	if err != nil {
		return nil, err
	}
	s.completeIfPaid(ctx, sessionID, attempt, started)
	return model.NewResult(attempt), nil
}

// =====================================================
// PAYPAL (two phase)
// =====================================================

func (s *CheckoutService) PayPalCreateOrder(ctx context.Context, cmd command.PayPalCreateOrder) (*model.Result, error) {
	sessionID, err := reqctx.SessionID(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.builder.Build(ctx, cmd.Shipping, cmd.Contact, "")
	if err != nil {
		return nil, err
	}

	amount, currency := order.Total()
	attempt, err := s.payments.StartTwoPhase(ctx, paymentsvc.StartRequest{
		AttemptID: cmd.AttemptID,
		SessionID: sessionID,
		Order:     order.ToCreateRequest(paymentMethodPayPal),
		Amount:    amount,
		Currency:  currency,
	})
	if err != nil {
		return nil, err
	}
	return model.NewResult(attempt), nil
}

func (s *CheckoutService) PayPalCapturePayment(ctx context.Context, cmd command.PayPalCapturePayment) (*model.Result, error) {
	sessionID, err := reqctx.SessionID(ctx)
	if err != nil {
		return nil, err
	}

	started := s.now()
	attempt, err := s.payments.Capture(ctx, sessionID, cmd.AttemptID, strings.TrimSpace(cmd.PayPalOrderID))
	if err != nil {
		return nil, err
	}
	s.completeIfPaid(ctx, sessionID, attempt, started)
	return model.NewResult(attempt), nil
}

// =====================================================
// COMPLETION
// =====================================================

// completeIfPaid empties the live cart and queues the session clear. An
// attempt that had already succeeded before this call was completed then.
func (s *CheckoutService) completeIfPaid(ctx context.Context, sessionID string, a *paymentmodel.Attempt, started time.Time) {
	if a == nil || a.State != paymentmodel.StateSucceeded || a.UpdatedAt.Before(started) {
		return
	}

	log := reqctx.Logger(ctx)
	paidAt := s.now()

	// the clear job stays queued as a backstop when the reset fails
	if err := s.workspaces.Reset(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("order_uuid", a.OrderUUID).Msg("failed to clear paid session")
	}

	data, err := json.Marshal(model.ClearSessionPayload{
		SessionID: sessionID,
		OrderUUID: a.OrderUUID,
		PaidAt:    paidAt,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal clear session payload")
		return
	}

	_, err = s.tasks.EnqueueContext(ctx,
		asynq.NewTask(model.TypeClearSession, data),
		asynq.Queue(queue.QueueHigh),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		log.Error().Err(err).Str("order_uuid", a.OrderUUID).Msg("failed to enqueue session clear")
		return
	}

	log.Info().Str("order_uuid", a.OrderUUID).Str("attempt_id", a.ID.String()).Msg("order paid")
}
