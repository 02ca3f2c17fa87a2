package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	cart "storefront-backend/internal/domains/cart/model"
	"storefront-backend/internal/domains/session/model"
	"storefront-backend/internal/domains/session/repository"
	"storefront-backend/internal/shared/reqctx"
)

// Service is the only way to read or write the session record. The session
// id always comes from the request scope.
type Service struct {
	repo repository.Repository
	now  func() time.Time
}

func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Load returns the current session, or an empty one if none is stored yet
func (s *Service) Load(ctx context.Context) (*model.Session, error) {
	id, err := reqctx.SessionID(ctx)
	if err != nil {
		return nil, err
	}
	return s.LoadByID(ctx, id)
}

// LoadByID is used outside a request scope (background jobs)
func (s *Service) LoadByID(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.repo.Get(ctx, id)
	if errors.Is(err, model.ErrSessionNotFound) {
		return model.New(id), nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) GetCart(ctx context.Context) (cart.ShoppingCart, error) {
	session, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return session.Cart, nil
}

// =====================================================
// MUTATIONS (each returns a handle that must be committed)
// =====================================================

// Begin loads the session into an uncommitted handle
func (s *Service) Begin(ctx context.Context) (*Handle, error) {
	session, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Handle{svc: s, session: session}, nil
}

// BeginByID is Begin for background jobs
func (s *Service) BeginByID(ctx context.Context, id string) (*Handle, error) {
	session, err := s.LoadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Handle{svc: s, session: session}, nil
}

func (s *Service) UpdateCart(ctx context.Context, c cart.ShoppingCart) (*Handle, error) {
	h, err := s.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return h.UpdateCart(c), nil
}

func (s *Service) SetPromoCode(ctx context.Context, promo cart.PromoCode) (*Handle, error) {
	h, err := s.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return h.SetPromoCode(promo), nil
}

func (s *Service) SetPriceSnapshot(ctx context.Context, info *cart.PriceInfo) (*Handle, error) {
	h, err := s.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return h.SetPriceSnapshot(info), nil
}

func (s *Service) ResetPriceSnapshot(ctx context.Context) (*Handle, error) {
	h, err := s.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return h.ResetPriceSnapshot(), nil
}

// =====================================================
// HANDLE
// =====================================================

// Handle holds pending changes to one session. Nothing is persisted until
// Commit; an uncommitted handle is lost on the next page load.
type Handle struct {
	svc       *Service
	session   *model.Session
	dirty     bool
	committed bool
}

// UpdateCart replaces the cart. An empty cart also resets the price snapshot.
func (h *Handle) UpdateCart(c cart.ShoppingCart) *Handle {
	h.session.Cart = c.Clone()
	h.dirty = true
	if h.session.Cart.IsEmpty() {
		return h.ResetPriceSnapshot()
	}
	return h
}

func (h *Handle) SetPromoCode(promo cart.PromoCode) *Handle {
	h.session.PromoCode = promo
	h.dirty = true
	return h
}

func (h *Handle) SetPriceSnapshot(info *cart.PriceInfo) *Handle {
	h.session.PriceInfo = info.Clone()
	h.dirty = true
	return h
}

// ResetPriceSnapshot clears the promo and the price snapshot
func (h *Handle) ResetPriceSnapshot() *Handle {
	h.session.PriceInfo = nil
	h.session.PromoCode = cart.PromoCode{}
	h.dirty = true
	return h
}

// Snapshot returns a copy of the session including uncommitted changes
func (h *Handle) Snapshot() *model.Session {
	return h.session.Clone()
}

// Commit writes the session back. Committing a clean handle is a no-op.
func (h *Handle) Commit(ctx context.Context) error {
	if h.committed {
		return model.ErrAlreadyCommitted
	}
	h.committed = true
	if !h.dirty {
		return nil
	}

	h.session.UpdatedAt = h.svc.now()
	if err := h.svc.repo.Save(ctx, h.session); err != nil {
		return fmt.Errorf("commit session %s: %w", h.session.ID, err)
	}
	return nil
}

// Delete drops the whole record, used once an order is paid
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
