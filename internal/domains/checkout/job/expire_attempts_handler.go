package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/domains/checkout/model"
	"storefront-backend/internal/infrastructure/queue"
	"storefront-backend/pkg/logger"
)

type AttemptExpirer interface {
	ExpireStale(ctx context.Context, maxAge time.Duration) (int, error)
}

// ExpireAttemptsHandler fails checkout attempts left unfinished
type ExpireAttemptsHandler struct {
	attempts      AttemptExpirer
	defaultMaxAge time.Duration
}

func NewExpireAttemptsHandler(attempts AttemptExpirer, defaultMaxAge time.Duration) *ExpireAttemptsHandler {
	return &ExpireAttemptsHandler{
		attempts:      attempts,
		defaultMaxAge: defaultMaxAge,
	}
}

func (h *ExpireAttemptsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.ExpireAttemptsPayload
	if err := queue.UnmarshalTask(t, &payload); err != nil {
		return err
	}

	maxAge := time.Duration(payload.MaxAgeSeconds) * time.Second
	if maxAge <= 0 {
		maxAge = h.defaultMaxAge
	}

	expired, err := h.attempts.ExpireStale(ctx, maxAge)
	if err != nil {
		return fmt.Errorf("expire checkout attempts: %w", err)
	}

	logger.Info("Expired stale checkout attempts", map[string]interface{}{
		"expired": expired,
		"max_age": maxAge.String(),
	})
	return nil
}
