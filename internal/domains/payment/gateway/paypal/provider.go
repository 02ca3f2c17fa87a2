package paypal

import (
	"context"

	ordermodel "storefront-backend/internal/domains/order/model"
	orderservice "storefront-backend/internal/domains/order/service"
	"storefront-backend/internal/domains/payment/gateway"
	"storefront-backend/internal/domains/payment/model"
)

const ProviderName = "paypal"

// Provider is the two-phase flow. The Order API owns the PayPal integration:
// it opens the PayPal order and later captures it.
type Provider struct {
	orders orderservice.API
}

func NewProvider(orders orderservice.API) *Provider {
	return &Provider{orders: orders}
}

var _ gateway.Provider = (*Provider)(nil)

func (p *Provider) Name() string     { return ProviderName }
func (p *Provider) Flow() model.Flow { return model.FlowTwoPhase }

func (p *Provider) CreateOrder(ctx context.Context, req ordermodel.CreateRequest) (*gateway.CreateOrderResult, error) {
	req.PaymentMethod = ProviderName
	res, err := p.orders.CreatePayPalOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	return &gateway.CreateOrderResult{OrderUUID: res.OrderUUID, ExternalOrderID: res.PayPalOrderID}, nil
}

func (p *Provider) Confirm(context.Context, gateway.ConfirmRequest) (*gateway.ConfirmResult, error) {
	return nil, model.ErrUnsupportedOperation
}

// Capture succeeds only when PayPal reports COMPLETED
func (p *Provider) Capture(ctx context.Context, req gateway.CaptureRequest) (*gateway.CaptureResult, error) {
	if !(model.CaptureState{OrderUUID: req.OrderUUID, ExternalProviderOrderID: req.ExternalOrderID}).Ready() {
		return nil, model.ErrCaptureNotReady
	}

	res, err := p.orders.CapturePayPalOrder(ctx, ordermodel.CaptureRequest{
		PayPalOrderID: req.ExternalOrderID,
		OrderUUID:     req.OrderUUID,
	})
	if err != nil {
		return nil, err
	}
	return &gateway.CaptureResult{Status: res.Status, Completed: res.Completed(), Raw: res.Raw}, nil
}
