package service

import (
	"context"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/domains/checkout/command"
	"storefront-backend/internal/domains/checkout/model"
)

type ServiceInterface interface {
	// Execute runs one checkout action for the request's session
	Execute(ctx context.Context, cmd command.Command) (*model.Result, error)

	// PaymentIntent opens the card payment for the session's priced total
	PaymentIntent(ctx context.Context) (*model.PaymentIntent, error)

	// ResolveReturn settles a card payment after the provider redirect
	ResolveReturn(ctx context.Context, orderUUID, intentID string) (*model.Result, error)
}

// TaskEnqueuer is satisfied by *asynq.Client
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// WorkspaceResetter empties the live cart and the stored session of a
// session whose order is paid
type WorkspaceResetter interface {
	Reset(ctx context.Context, sessionID string) error
}
