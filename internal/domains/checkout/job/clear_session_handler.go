package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	cart "storefront-backend/internal/domains/cart/model"
	"storefront-backend/internal/domains/checkout/model"
	sessionsvc "storefront-backend/internal/domains/session/service"
	"storefront-backend/internal/infrastructure/queue"
	"storefront-backend/pkg/logger"
)

// SessionOpener opens a session record outside a request
type SessionOpener interface {
	BeginByID(ctx context.Context, id string) (*sessionsvc.Handle, error)
}

// ClearSessionHandler empties the cart, promo and price snapshot of a
// session whose order was paid
type ClearSessionHandler struct {
	sessions SessionOpener
}

func NewClearSessionHandler(sessions SessionOpener) *ClearSessionHandler {
	return &ClearSessionHandler{
		sessions: sessions,
	}
}

func (h *ClearSessionHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.ClearSessionPayload
	if err := queue.UnmarshalTask(t, &payload); err != nil {
		return err
	}
	if payload.SessionID == "" {
		return fmt.Errorf("clear session: empty session id: %w", asynq.SkipRetry)
	}

	logger.Info("Processing clear session task", map[string]interface{}{
		"session_id": payload.SessionID,
		"order_uuid": payload.OrderUUID,
	})

	handle, err := h.sessions.BeginByID(ctx, payload.SessionID)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	session := handle.Snapshot()

	// the shopper has already started a new cart
	if session.UpdatedAt.After(payload.PaidAt) {
		logger.Info("Session changed after payment, leaving it", map[string]interface{}{
			"session_id": payload.SessionID,
			"updated_at": session.UpdatedAt,
		})
		return nil
	}
	if session.Cart.IsEmpty() && session.PriceInfo == nil && !session.PromoCode.IsSet() {
		return nil
	}

	if err := handle.UpdateCart(cart.ShoppingCart{}).Commit(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	logger.Info("Cleared session successfully", map[string]interface{}{
		"session_id":    payload.SessionID,
		"cleared_items": len(session.Cart),
	})
	return nil
}
