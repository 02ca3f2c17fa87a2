package repository

import (
	"context"
	"fmt"
	"time"

	cart "storefront-backend/internal/domains/cart/model"
	"storefront-backend/internal/domains/session/model"
	"storefront-backend/pkg/cache"
)

type Repository interface {
	// Get returns ErrSessionNotFound when nothing is stored for id
	Get(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id string) error
}

// cacheRepository keeps sessions in the key/value cache (Redis in
// production). Every save refreshes the TTL.
type cacheRepository struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewCacheRepository(c cache.Cache, ttl time.Duration) Repository {
	return &cacheRepository{cache: c, ttl: ttl}
}

func (r *cacheRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	found, err := r.cache.Get(ctx, key(id), &session)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, model.ErrSessionNotFound
	}
	if session.Cart == nil {
		session.Cart = cart.ShoppingCart{}
	}
	return &session, nil
}

func (r *cacheRepository) Save(ctx context.Context, session *model.Session) error {
	if err := r.cache.Set(ctx, key(session.ID), session, r.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, id string) error {
	if err := r.cache.Delete(ctx, key(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func key(id string) string {
	return fmt.Sprintf(model.CacheKeySession, id)
}
