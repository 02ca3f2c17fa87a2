package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cart "storefront-backend/internal/domains/cart/model"
	"storefront-backend/internal/domains/checkout/job"
	"storefront-backend/internal/domains/checkout/model"
	"storefront-backend/internal/domains/session/repository"
	sessionsvc "storefront-backend/internal/domains/session/service"
	"storefront-backend/pkg/cache"
)

func seedSession(t *testing.T, sessions *sessionsvc.Service, id string) {
	t.Helper()
	h, err := sessions.BeginByID(context.Background(), id)
	require.NoError(t, err)
	h.UpdateCart(cart.ShoppingCart{
		"A": {VariationID: "A", Quantity: 2, SalePrice: decimal.NewFromInt(10)},
	}).
		SetPromoCode(cart.PromoCode{Code: "SAVE5", Applied: true, Valid: true}).
		SetPriceSnapshot(&cart.PriceInfo{TotalAmount: decimal.NewFromInt(15)})
	require.NoError(t, h.Commit(context.Background()))
}

func clearTask(t *testing.T, payload model.ClearSessionPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(model.TypeClearSession, data)
}

func TestClearSessionEmptiesPaidSession(t *testing.T) {
	sessions := sessionsvc.NewService(repository.NewCacheRepository(cache.NewMemory(), time.Hour))
	seedSession(t, sessions, "sess-1")

	h := job.NewClearSessionHandler(sessions)
	err := h.ProcessTask(context.Background(), clearTask(t, model.ClearSessionPayload{
		SessionID: "sess-1",
		OrderUUID: "order-1",
		PaidAt:    time.Now().Add(time.Second),
	}))
	require.NoError(t, err)

	session, err := sessions.LoadByID(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.True(t, session.Cart.IsEmpty())
	assert.Nil(t, session.PriceInfo)
	assert.False(t, session.PromoCode.IsSet())
}

func TestClearSessionLeavesNewerCart(t *testing.T) {
	sessions := sessionsvc.NewService(repository.NewCacheRepository(cache.NewMemory(), time.Hour))
	paidAt := time.Now().Add(-time.Minute)
	seedSession(t, sessions, "sess-1")

	h := job.NewClearSessionHandler(sessions)
	require.NoError(t, h.ProcessTask(context.Background(), clearTask(t, model.ClearSessionPayload{
		SessionID: "sess-1",
		PaidAt:    paidAt,
	})))

	session, err := sessions.LoadByID(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Len(t, session.Cart, 1)
}

func TestClearSessionWithoutRecordIsNoop(t *testing.T) {
	sessions := sessionsvc.NewService(repository.NewCacheRepository(cache.NewMemory(), time.Hour))

	h := job.NewClearSessionHandler(sessions)
	require.NoError(t, h.ProcessTask(context.Background(), clearTask(t, model.ClearSessionPayload{
		SessionID: "gone",
		PaidAt:    time.Now(),
	})))
}

func TestClearSessionSkipsRetryOnBadPayload(t *testing.T) {
	sessions := sessionsvc.NewService(repository.NewCacheRepository(cache.NewMemory(), time.Hour))
	h := job.NewClearSessionHandler(sessions)

	err := h.ProcessTask(context.Background(), asynq.NewTask(model.TypeClearSession, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = h.ProcessTask(context.Background(), clearTask(t, model.ClearSessionPayload{}))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

// =====================================================
// EXPIRE ATTEMPTS
// =====================================================

type stubExpirer struct {
	maxAge time.Duration
	err    error
}

func (s *stubExpirer) ExpireStale(_ context.Context, maxAge time.Duration) (int, error) {
	s.maxAge = maxAge
	return 3, s.err
}

func TestExpireAttemptsUsesPayloadAge(t *testing.T) {
	expirer := &stubExpirer{}
	h := job.NewExpireAttemptsHandler(expirer, time.Hour)

	data, _ := json.Marshal(model.ExpireAttemptsPayload{MaxAgeSeconds: 120})
	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(model.TypeExpireAttempts, data)))
	assert.Equal(t, 2*time.Minute, expirer.maxAge)
}

func TestExpireAttemptsFallsBackToDefault(t *testing.T) {
	expirer := &stubExpirer{}
	h := job.NewExpireAttemptsHandler(expirer, time.Hour)

	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(model.TypeExpireAttempts, []byte(`{}`))))
	assert.Equal(t, time.Hour, expirer.maxAge)
}

func TestExpireAttemptsReturnsStoreError(t *testing.T) {
	expirer := &stubExpirer{err: errors.New("db down")}
	h := job.NewExpireAttemptsHandler(expirer, time.Hour)

	err := h.ProcessTask(context.Background(), asynq.NewTask(model.TypeExpireAttempts, []byte(`{}`)))
	assert.Error(t, err)
}
