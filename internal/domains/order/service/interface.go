package service

import (
	"context"

	"storefront-backend/internal/domains/order/model"
)

// API is the external Order API
type API interface {
	// CreateOrder submits an order paid through a single-phase provider
	CreateOrder(ctx context.Context, req model.CreateRequest) (*model.CreateResult, error)

	// CreatePayPalOrder submits an order and opens a PayPal order for approval
	CreatePayPalOrder(ctx context.Context, req model.CreateRequest) (*model.PayPalCreateResult, error)

	// CapturePayPalOrder captures an approved PayPal order
	CapturePayPalOrder(ctx context.Context, req model.CaptureRequest) (*model.CaptureResult, error)
}
