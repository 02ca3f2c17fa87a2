package service

import (
	"context"
	"sync"
	"time"

	addresssvc "storefront-backend/internal/domains/address/service"
	"storefront-backend/internal/domains/cart/model"
	"storefront-backend/internal/domains/pricing"
	sessionmodel "storefront-backend/internal/domains/session/model"
	"storefront-backend/internal/shared/reqctx"
	"storefront-backend/pkg/logger"
)

// SessionStore is the slice of the session service the cart needs
type SessionStore interface {
	SessionWriter
	Load(ctx context.Context) (*sessionmodel.Session, error)
	Delete(ctx context.Context, id string) error
}

// Workspace is the live, in-memory state of one shopper's session
type Workspace struct {
	SessionID  string
	Controller *Controller
	Autofill   *addresssvc.Autofill

	lastUsed time.Time
}

type RegistryConfig struct {
	Policy   StalePolicy
	IdleTTL  time.Duration
	Autofill addresssvc.AutofillConfig
}

// Registry hands out one Workspace per session id and evicts idle ones
type Registry struct {
	oracle   pricing.Oracle
	sessions SessionStore
	lookup   addresssvc.Lookup
	cfg      RegistryConfig
	now      func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewRegistry(oracle pricing.Oracle, sessions SessionStore, lookup addresssvc.Lookup, cfg RegistryConfig) *Registry {
	return &Registry{
		oracle:     oracle,
		sessions:   sessions,
		lookup:     lookup,
		cfg:        cfg,
		now:        time.Now,
		workspaces: map[string]*Workspace{},
	}
}

// Acquire returns the caller's workspace, seeding a new one from the
// session record when needed
func (r *Registry) Acquire(ctx context.Context) (*Workspace, error) {
	sessionID, err := reqctx.SessionID(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if ws, ok := r.workspaces[sessionID]; ok {
		ws.lastUsed = r.now()
		r.mu.Unlock()
		return ws, nil
	}
	r.mu.Unlock()

	session, err := r.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// another request may have won the race
	if ws, ok := r.workspaces[sessionID]; ok {
		ws.lastUsed = r.now()
		return ws, nil
	}

	ws := r.newWorkspace(sessionID, model.NewState(session.Cart, session.PromoCode, session.PriceInfo))
	r.workspaces[sessionID] = ws
	return ws, nil
}

func (r *Registry) newWorkspace(sessionID string, initial model.State) *Workspace {
	return &Workspace{
		SessionID:  sessionID,
		Controller: NewController(r.oracle, r.sessions, r.cfg.Policy, initial),
		Autofill:   addresssvc.NewAutofill(r.lookup, r.cfg.Autofill),
		lastUsed:   r.now(),
	}
}

func emptyState() model.State {
	return model.NewState(nil, model.PromoCode{}, nil)
}

// Autofill returns the address autofill of the caller's workspace
func (r *Registry) Autofill(ctx context.Context) (*addresssvc.Autofill, error) {
	ws, err := r.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return ws.Autofill, nil
}

// Reset empties a session once its order is paid.
//
// Step 1: park a retired empty workspace so requests arriving meanwhile
// see an empty cart and cannot write the session
// Step 2: retire the old controller, waiting out any commit it started
// Step 3: delete the session record
// Step 4: swap in a live empty workspace
func (r *Registry) Reset(ctx context.Context, sessionID string) error {
	parked := r.newWorkspace(sessionID, emptyState())
	parked.Controller.Retire()

	r.mu.Lock()
	old := r.workspaces[sessionID]
	r.workspaces[sessionID] = parked
	r.mu.Unlock()

	if old != nil {
		old.Controller.Retire()
		old.Autofill.Stop()
	}

	err := r.sessions.Delete(ctx, sessionID)

	r.mu.Lock()
	if r.workspaces[sessionID] == parked {
		r.workspaces[sessionID] = r.newWorkspace(sessionID, emptyState())
	}
	r.mu.Unlock()
	parked.Autofill.Stop()

	return err
}

// EvictIdle drops workspaces unused for longer than the idle TTL and
// returns how many were removed. Workspaces with a recompute in flight stay.
func (r *Registry) EvictIdle() int {
	cutoff := r.now().Add(-r.cfg.IdleTTL)

	r.mu.Lock()
	var idle []*Workspace
	for id, ws := range r.workspaces {
		if ws.lastUsed.Before(cutoff) && !ws.Controller.Syncing() {
			idle = append(idle, ws)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range idle {
		ws.Autofill.Stop()
	}
	return len(idle)
}

// Len is the number of live workspaces
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Run evicts idle workspaces until ctx is done
func (r *Registry) Run(ctx context.Context) {
	interval := r.cfg.IdleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.EvictIdle(); n > 0 {
				logger.Debug("evicted idle cart workspaces")
			}
		}
	}
}
