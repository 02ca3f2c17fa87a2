package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/payment/model"
	"storefront-backend/pkg/database"
)

// =====================================================
// CHECKOUT ATTEMPT REPOSITORY IMPLEMENTATION
// =====================================================
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) AttemptRepository {
	return &postgresRepository{pool: pool}
}

const attemptColumns = `
	id, session_id, provider, flow, state, order_uuid, external_order_id,
	intent_id, redirect_url, amount, currency, failure_reason, created_at, updated_at
`

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	var a model.Attempt
	err := row.Scan(
		&a.ID,
		&a.SessionID,
		&a.Provider,
		&a.Flow,
		&a.State,
		&a.OrderUUID,
		&a.ExternalOrderID,
		&a.IntentID,
		&a.RedirectURL,
		&a.Amount,
		&a.Currency,
		&a.FailureReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan checkout attempt: %w", err)
	}
	return &a, nil
}

// GetOrCreate inserts and reads back in one transaction so a concurrent
// retry with the same id sees the first row
func (r *postgresRepository) GetOrCreate(ctx context.Context, a *model.Attempt) (*model.Attempt, bool, error) {
	type result struct {
		attempt *model.Attempt
		created bool
	}

	res, err := database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (result, error) {
		tag, err := tx.Exec(ctx, `
			INSERT INTO checkout_attempts (
				id, session_id, provider, flow, state, order_uuid, external_order_id,
				intent_id, redirect_url, amount, currency, failure_reason, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (id) DO NOTHING
		`,
			a.ID, a.SessionID, a.Provider, a.Flow, a.State, a.OrderUUID, a.ExternalOrderID,
			a.IntentID, a.RedirectURL, a.Amount, a.Currency, a.FailureReason, a.CreatedAt, a.UpdatedAt,
		)
		if err != nil {
			return result{}, fmt.Errorf("failed to insert checkout attempt: %w", err)
		}

		stored, err := scanAttempt(tx.QueryRow(ctx, `SELECT `+attemptColumns+` FROM checkout_attempts WHERE id = $1`, a.ID))
		if err != nil {
			return result{}, err
		}
		return result{attempt: stored, created: tag.RowsAffected() == 1}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return res.attempt, res.created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM checkout_attempts WHERE id = $1`, id))
}

func (r *postgresRepository) GetByOrderUUID(ctx context.Context, orderUUID string) (*model.Attempt, error) {
	if orderUUID == "" {
		return nil, model.ErrAttemptNotFound
	}
	return scanAttempt(r.pool.QueryRow(ctx, `
		SELECT `+attemptColumns+` FROM checkout_attempts
		WHERE order_uuid = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`, orderUUID))
}

func (r *postgresRepository) Update(ctx context.Context, a *model.Attempt, from model.State) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE checkout_attempts SET
			state = $2,
			order_uuid = $3,
			external_order_id = $4,
			intent_id = $5,
			redirect_url = $6,
			amount = $7,
			currency = $8,
			failure_reason = $9,
			updated_at = $10
		WHERE id = $1 AND state = $11
	`,
		a.ID, a.State, a.OrderUUID, a.ExternalOrderID, a.IntentID, a.RedirectURL,
		a.Amount, a.Currency, a.FailureReason, a.UpdatedAt, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update checkout attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleAttempt
	}
	return nil
}

func (r *postgresRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE checkout_attempts SET
			state = $1,
			failure_reason = 'expired',
			updated_at = NOW()
		WHERE state IN ($2, $3, $4, $5, $6)
		  AND updated_at < $7
	`,
		model.StateFailed,
		model.StateIdle, model.StateOrderCreating, model.StatePaymentConfirming,
		model.StateAwaitingApproval, model.StateCapturing,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire checkout attempts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
