package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	ordermodel "storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/payment/gateway"
	"storefront-backend/internal/domains/payment/model"
)

// =====================================================
// MOCK PAYMENT PROVIDER FOR TESTING
// =====================================================

// Provider succeeds by default. Failures and outcomes are set per test.
type Provider struct {
	name string
	flow model.Flow

	mu             sync.Mutex
	createErr      error
	confirmErr     error
	confirmOutcome gateway.Outcome
	captureErr     error
	captureStatus  string
	creates        []ordermodel.CreateRequest
	confirms       []gateway.ConfirmRequest
	captures       []gateway.CaptureRequest
	secrets        map[string]gateway.SecretRequest
	seq            int
}

func NewProvider(name string, flow model.Flow) *Provider {
	return &Provider{
		name:           name,
		flow:           flow,
		confirmOutcome: gateway.OutcomeSucceeded,
		captureStatus:  ordermodel.CaptureStatusCompleted,
		secrets:        map[string]gateway.SecretRequest{},
	}
}

var (
	_ gateway.Provider       = (*Provider)(nil)
	_ gateway.SecretIssuer   = (*Provider)(nil)
	_ gateway.ReturnResolver = (*Provider)(nil)
	_ gateway.AmountVerifier = (*Provider)(nil)
)

func (p *Provider) Name() string     { return p.name }
func (p *Provider) Flow() model.Flow { return p.flow }

func (p *Provider) CreateOrder(_ context.Context, req ordermodel.CreateRequest) (*gateway.CreateOrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.creates = append(p.creates, req)
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.seq++
	out := &gateway.CreateOrderResult{OrderUUID: fmt.Sprintf("mock-order-%d", p.seq)}
	if p.flow == model.FlowTwoPhase {
		out.ExternalOrderID = fmt.Sprintf("MOCK-PP-%d", p.seq)
	}
	return out, nil
}

func (p *Provider) Confirm(_ context.Context, req gateway.ConfirmRequest) (*gateway.ConfirmResult, error) {
	if p.flow != model.FlowSinglePhase {
		return nil, model.ErrUnsupportedOperation
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.confirms = append(p.confirms, req)
	if p.confirmErr != nil {
		return nil, p.confirmErr
	}
	out := &gateway.ConfirmResult{Outcome: p.confirmOutcome, IntentID: req.IntentID, OrderUUID: req.OrderUUID}
	switch p.confirmOutcome {
	case gateway.OutcomeRequiresAction:
		out.RedirectURL = "https://mock-bank.test/3ds?return=" + req.ReturnURL
	case gateway.OutcomeFailed:
		out.FailureReason = "card_declined"
	}
	return out, nil
}

func (p *Provider) Capture(_ context.Context, req gateway.CaptureRequest) (*gateway.CaptureResult, error) {
	if p.flow != model.FlowTwoPhase {
		return nil, model.ErrUnsupportedOperation
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.captures = append(p.captures, req)
	if p.captureErr != nil {
		return nil, p.captureErr
	}
	raw, _ := json.Marshal(map[string]string{"status": p.captureStatus})
	return &gateway.CaptureResult{
		Status:    p.captureStatus,
		Completed: p.captureStatus == ordermodel.CaptureStatusCompleted,
		Raw:       raw,
	}, nil
}

func (p *Provider) CreatePaymentSecret(_ context.Context, req gateway.SecretRequest) (*gateway.Secret, error) {
	id := "pi_mock_" + req.IdempotencyKey

	p.mu.Lock()
	p.secrets[id] = req
	p.mu.Unlock()
	return &gateway.Secret{IntentID: id, ClientSecret: id + "_secret_mock"}, nil
}

// VerifyAmount compares against the secret issued for intentID; intents it
// never issued pass
func (p *Provider) VerifyAmount(_ context.Context, intentID string, amount decimal.Decimal, currency string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	issued, ok := p.secrets[intentID]
	if !ok {
		return nil
	}
	if !issued.Amount.Equal(amount) || !strings.EqualFold(issued.Currency, currency) {
		return fmt.Errorf("%w: %s issued for %s %s", gateway.ErrAmountMismatch, intentID, issued.Amount, issued.Currency)
	}
	return nil
}

// Retrieve reports the configured confirm outcome
func (p *Provider) Retrieve(_ context.Context, intentID string) (*gateway.ConfirmResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var orderUUID string
	for _, c := range p.confirms {
		if c.IntentID == intentID {
			orderUUID = c.OrderUUID
		}
	}
	return &gateway.ConfirmResult{Outcome: p.confirmOutcome, IntentID: intentID, OrderUUID: orderUUID}, nil
}

// =====================================================
// TEST CONTROLS
// =====================================================

func (p *Provider) FailCreate(err error) {
	p.mu.Lock()
	p.createErr = err
	p.mu.Unlock()
}

func (p *Provider) FailConfirm(err error) {
	p.mu.Lock()
	p.confirmErr = err
	p.mu.Unlock()
}

func (p *Provider) SetConfirmOutcome(o gateway.Outcome) {
	p.mu.Lock()
	p.confirmOutcome = o
	p.mu.Unlock()
}

func (p *Provider) FailCapture(err error) {
	p.mu.Lock()
	p.captureErr = err
	p.mu.Unlock()
}

func (p *Provider) SetCaptureStatus(status string) {
	p.mu.Lock()
	p.captureStatus = status
	p.mu.Unlock()
}

func (p *Provider) CreateCalls() []ordermodel.CreateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ordermodel.CreateRequest(nil), p.creates...)
}

func (p *Provider) ConfirmCalls() []gateway.ConfirmRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gateway.ConfirmRequest(nil), p.confirms...)
}

func (p *Provider) CaptureCalls() []gateway.CaptureRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gateway.CaptureRequest(nil), p.captures...)
}
