package service

import (
	"context"

	"storefront-backend/internal/domains/cart/command"
	"storefront-backend/internal/domains/cart/model"
)

type ServiceInterface interface {
	// Execute applies one cart command and returns the settled view
	// Validation failures never reach the price oracle
	Execute(ctx context.Context, cmd command.Command) (*model.View, error)

	// LoadPage is a full cart page load: state comes from the session
	// record and the stored promo is re-validated by a fresh recompute
	LoadPage(ctx context.Context) (*model.View, error)

	// Count reads the badge value straight from the session record
	Count(ctx context.Context) (int, error)

	// SyncStatus returns the live view, including origins still syncing
	SyncStatus(ctx context.Context) (*model.View, error)
}
