package service

import (
	"context"
	"time"

	"storefront-backend/internal/domains/cart/command"
	"storefront-backend/internal/domains/cart/model"
)

// CartService dispatches cart commands onto the caller's workspace. It is
// the command.Visitor for cart actions.
type CartService struct {
	registry *Registry
	sessions SessionStore
	now      func() time.Time
}

func NewCartService(registry *Registry, sessions SessionStore) ServiceInterface {
	return &CartService{
		registry: registry,
		sessions: sessions,
		now:      time.Now,
	}
}

var _ command.Visitor = (*CartService)(nil)

func (s *CartService) Execute(ctx context.Context, cmd command.Command) (*model.View, error) {
	return cmd.Accept(ctx, s)
}

// =====================================================
// COMMAND HANDLERS
// =====================================================

// RemoveCartItem also confirms a pending removal: the line showing 0 goes
// away and the remaining cart is priced once
func (s *CartService) RemoveCartItem(ctx context.Context, cmd command.RemoveCartItem) (*model.View, error) {
	return s.apply(ctx, cmd.VariationID, func(st model.State) (model.State, model.Effect, error) {
		if st.IsPendingRemoval(cmd.VariationID) {
			return model.ConfirmRemoval(st, cmd.VariationID)
		}
		return model.RemoveItem(st, cmd.VariationID)
	})
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, cmd command.UpdateItemQuantity) (*model.View, error) {
	return s.apply(ctx, cmd.VariationID, func(st model.State) (model.State, model.Effect, error) {
		return model.UpdateQuantity(st, cmd.VariationID, cmd.Quantity)
	})
}

func (s *CartService) ApplyPromoCode(ctx context.Context, cmd command.ApplyPromoCode) (*model.View, error) {
	return s.apply(ctx, model.OriginPromo, func(st model.State) (model.State, model.Effect, error) {
		return model.SetPromoCode(st, cmd.Code)
	})
}

func (s *CartService) BuyNow(ctx context.Context, cmd command.BuyNow) (*model.View, error) {
	item := cmd.Item.ToCartItem(s.now())
	return s.apply(ctx, model.OriginBulk, func(st model.State) (model.State, model.Effect, error) {
		return model.ReplaceCart(st, []model.CartItem{item})
	})
}

func (s *CartService) AddCartItem(ctx context.Context, cmd command.AddCartItem) (*model.View, error) {
	item := cmd.Item.ToCartItem(s.now())
	return s.apply(ctx, item.VariationID, func(st model.State) (model.State, model.Effect, error) {
		return model.AddItem(st, item)
	})
}

func (s *CartService) CancelItemRemoval(ctx context.Context, cmd command.CancelItemRemoval) (*model.View, error) {
	return s.apply(ctx, cmd.VariationID, func(st model.State) (model.State, model.Effect, error) {
		return model.CancelRemoval(st, cmd.VariationID)
	})
}

func (s *CartService) apply(ctx context.Context, origin string, reduce Reducer) (*model.View, error) {
	ws, err := s.registry.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return ws.Controller.Apply(ctx, origin, reduce)
}

// =====================================================
// PAGE LOAD / BADGE
// =====================================================

func (s *CartService) LoadPage(ctx context.Context) (*model.View, error) {
	ws, err := s.registry.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ws.Controller.Reload(ctx, session)
}

func (s *CartService) Count(ctx context.Context) (int, error) {
	session, err := s.sessions.Load(ctx)
	if err != nil {
		return 0, err
	}
	return session.Cart.Count(), nil
}

func (s *CartService) SyncStatus(ctx context.Context) (*model.View, error) {
	ws, err := s.registry.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return ws.Controller.View(), nil
}
