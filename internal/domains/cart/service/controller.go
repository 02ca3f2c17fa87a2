package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"storefront-backend/internal/domains/cart/model"
	"storefront-backend/internal/domains/pricing"
	sessionmodel "storefront-backend/internal/domains/session/model"
	sessionsvc "storefront-backend/internal/domains/session/service"
	"storefront-backend/internal/shared/reqctx"
)

// StalePolicy decides what happens to a recompute response that was
// overtaken by a newer mutation
type StalePolicy string

const (
	// PolicyLatestGeneration cancels superseded requests, discards their
	// responses and rolls back to the confirmed cart when the current
	// request fails
	PolicyLatestGeneration StalePolicy = "latest_generation"
	// PolicyLastArrival applies every response in arrival order and keeps
	// optimistic edits on failure
	PolicyLastArrival StalePolicy = "last_arrival"
)

// Reducer is one Cart Store transition
type Reducer func(model.State) (model.State, model.Effect, error)

// SessionWriter opens a session handle for the request's session
type SessionWriter interface {
	Begin(ctx context.Context) (*sessionsvc.Handle, error)
}

// =====================================================
// SYNC CONTROLLER
// =====================================================

// Controller owns one session's Cart Store. Mutations apply optimistically,
// then exactly one recompute carries the whole cart to the oracle. State is
// guarded by mu; oracle and session I/O happen outside it.
type Controller struct {
	oracle   pricing.Oracle
	sessions SessionWriter
	policy   StalePolicy

	mu         sync.Mutex
	state      model.State
	generation uint64
	cancel     context.CancelFunc
	syncing    map[string]int
	version    uint64 // bumped on every state that must reach the session
	retired    bool

	commitMu  sync.Mutex
	committed uint64
}

func NewController(oracle pricing.Oracle, sessions SessionWriter, policy StalePolicy, initial model.State) *Controller {
	if policy == "" {
		policy = PolicyLatestGeneration
	}
	return &Controller{
		oracle:   oracle,
		sessions: sessions,
		policy:   policy,
		state:    initial,
		syncing:  map[string]int{},
	}
}

// View renders the current state without touching the network
func (c *Controller) View() *model.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// State returns a copy of the current Cart Store state
func (c *Controller) State() model.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Apply runs a reducer optimistically and syncs the result with the oracle.
//
// Step 1: reduce under the lock
// Step 2: act on the effect (nothing, confirm prompt, clear, recompute)
// Step 3: recompute outside the lock, tagged with a generation
// Step 4: reconcile the response per policy and commit the session
func (c *Controller) Apply(ctx context.Context, origin string, reduce Reducer) (*model.View, error) {
	c.mu.Lock()

	next, effect, err := reduce(c.state)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.state = next

	switch effect {
	case model.EffectNone, model.EffectConfirmRemoval:
		view := c.viewLocked()
		c.mu.Unlock()
		return view, nil

	case model.EffectCleared:
		// nothing left to price; a response still in flight is superseded
		c.generation++
		c.cancelInFlightLocked()
		delete(c.syncing, origin)
		version, snapshot := c.bumpLocked()
		view := c.viewLocked()
		c.mu.Unlock()

		if err := c.commit(ctx, version, snapshot); err != nil {
			return nil, err
		}
		return view, nil
	}

	return c.recompute(ctx, origin)
}

// Reload replaces the store with the session record, as on a full page
// load. The stored promo is sent again so its validity comes from a fresh
// oracle answer rather than the snapshot.
func (c *Controller) Reload(ctx context.Context, session *sessionmodel.Session) (*model.View, error) {
	promo := model.PromoCode{}
	if session.PromoCode.IsSet() {
		promo = model.PromoCode{Code: session.PromoCode.Code, Applied: true}
	}
	fresh := model.NewState(session.Cart, promo, session.PriceInfo)

	return c.Apply(ctx, model.OriginBulk, func(model.State) (model.State, model.Effect, error) {
		if fresh.Cart.IsEmpty() {
			return model.ReplaceCart(fresh, nil)
		}
		return fresh, model.EffectRecompute, nil
	})
}

// must be entered with mu held; returns with mu released
func (c *Controller) recompute(ctx context.Context, origin string) (*model.View, error) {
	c.generation++
	gen := c.generation

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if c.policy == PolicyLatestGeneration {
		c.cancelInFlightLocked()
		c.cancel = cancel
	}

	c.syncing[origin]++
	req := pricing.Request{
		Lines:        c.state.Cart.Lines(),
		DiscountCode: c.state.Promo.Code,
	}
	c.mu.Unlock()

	info, err := c.oracle.Recompute(reqCtx, req)

	c.mu.Lock()
	c.doneSyncingLocked(origin)

	if c.policy == PolicyLatestGeneration && gen != c.generation {
		reqctx.Logger(ctx).Debug().
			Uint64("generation", gen).
			Uint64("current", c.generation).
			Msg("discarding superseded price response")
		view := c.viewLocked()
		c.mu.Unlock()
		return view, nil
	}
	if c.policy == PolicyLatestGeneration {
		c.cancel = nil
	}

	if err != nil {
		if c.policy == PolicyLatestGeneration && !errors.Is(err, context.Canceled) {
			c.state = model.Rollback(c.state)
		}
		c.mu.Unlock()
		reqctx.Logger(ctx).Warn().Err(err).Str("origin", origin).Msg("price recompute failed")
		return nil, err
	}

	c.state, _, _ = model.SetPriceInfo(c.state, info)
	version, snapshot := c.bumpLocked()
	view := c.viewLocked()
	c.mu.Unlock()

	if err := c.commit(ctx, version, snapshot); err != nil {
		return nil, err
	}
	return view, nil
}

func (c *Controller) cancelInFlightLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) doneSyncingLocked(origin string) {
	c.syncing[origin]--
	if c.syncing[origin] <= 0 {
		delete(c.syncing, origin)
	}
}

// committable is the part of the store that lives in the session
type committable struct {
	cart  model.ShoppingCart
	promo model.PromoCode
	price *model.PriceInfo
}

func (c *Controller) bumpLocked() (uint64, committable) {
	c.version++
	return c.version, committable{
		cart:  c.state.Confirmed.Clone(),
		promo: c.state.ConfirmedPromo,
		price: c.state.PriceInfo.Clone(),
	}
}

// commit writes a confirmed snapshot. Commits are serialized and an older
// snapshot never overwrites a newer one.
func (c *Controller) commit(ctx context.Context, version uint64, snap committable) error {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	if version <= c.committed || c.isRetired() {
		return nil
	}

	h, err := c.sessions.Begin(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	h.UpdateCart(snap.cart).SetPromoCode(snap.promo).SetPriceSnapshot(snap.price)
	if snap.cart.IsEmpty() {
		h.ResetPriceSnapshot()
	}
	if err := h.Commit(ctx); err != nil {
		return err
	}

	c.committed = version
	return nil
}

// Retire stops the controller from ever writing the session again. A
// recompute in flight is cancelled and a commit already running is waited
// for, so once Retire returns the session record can be replaced safely.
func (c *Controller) Retire() {
	c.mu.Lock()
	c.retired = true
	c.generation++
	c.cancelInFlightLocked()
	c.mu.Unlock()

	c.commitMu.Lock()
	defer c.commitMu.Unlock()
}

func (c *Controller) isRetired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retired
}

func (c *Controller) viewLocked() *model.View {
	origins := make([]string, 0, len(c.syncing))
	for origin := range c.syncing {
		origins = append(origins, origin)
	}
	sort.Strings(origins)
	return model.NewView(c.state, origins)
}

// Syncing reports whether any recompute is in flight
func (c *Controller) Syncing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.syncing) > 0
}
