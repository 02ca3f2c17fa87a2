package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/payment/model"
)

// ErrStaleAttempt is returned when the stored state no longer matches the
// state the caller read
var ErrStaleAttempt = errors.New("checkout attempt was modified concurrently")

// =====================================================
// CHECKOUT ATTEMPT REPOSITORY INTERFACE
// =====================================================
type AttemptRepository interface {
	// GetOrCreate inserts a when its id is new, otherwise returns the stored row
	GetOrCreate(ctx context.Context, a *model.Attempt) (*model.Attempt, bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error)

	// GetByOrderUUID resolves a provider redirect back to its attempt
	GetByOrderUUID(ctx context.Context, orderUUID string) (*model.Attempt, error)

	// Update writes a only if the stored state is still from
	Update(ctx context.Context, a *model.Attempt, from model.State) error

	// ExpireStale fails unfinished attempts last touched before cutoff
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}
