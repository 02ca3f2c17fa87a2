package service

import (
	"context"
	"sync"
	"time"

	"storefront-backend/internal/domains/address/model"
	"storefront-backend/pkg/logger"
)

// AfterFunc schedules f after d and returns a stop function
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type AutofillConfig struct {
	Debounce  time.Duration
	MinLength int
	// Schedule replaces time.AfterFunc in tests
	Schedule AfterFunc
}

// Autofill drives the postal lookup for one shopper's shipping form.
//
//   - input is normalized and debounced
//   - values shorter than MinLength never fire
//   - a settled value equal to the last requested one is suppressed
//   - at most one lookup is in flight; a value settling meanwhile replaces
//     the queued one and is fired once right after, unless it equals the
//     in-flight value
type Autofill struct {
	lookup Lookup
	cfg    AutofillConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	stopTimer     func() bool
	debouncing    bool
	lastRequested string
	inFlight      bool
	queued        string
	hasQueued     bool
	result        model.AutofillResult
	stopped       bool
}

func NewAutofill(lookup Lookup, cfg AutofillConfig) *Autofill {
	if cfg.Schedule == nil {
		cfg.Schedule = realAfterFunc
	}
	if cfg.MinLength < 1 {
		cfg.MinLength = 3
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Autofill{
		lookup: lookup,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		result: model.AutofillResult{Candidates: []model.Candidate{}},
	}
}

// Input records a keystroke-level value and restarts the debounce window.
// It returns the normalized value.
func (a *Autofill) Input(value string) string {
	normalized := Normalize(value)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return normalized
	}

	if a.stopTimer != nil {
		a.stopTimer()
	}
	a.debouncing = true
	a.stopTimer = a.cfg.Schedule(a.cfg.Debounce, func() {
		a.settle(normalized)
	})
	return normalized
}

// settle runs when the debounce window closes without further input
func (a *Autofill) settle(value string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.debouncing = false
	a.stopTimer = nil
	if a.stopped {
		return
	}

	if len(value) < a.cfg.MinLength {
		return
	}
	if a.inFlight {
		// the newest settled value always replaces the queued one; going
		// back to the in-flight value leaves nothing to fire after it
		a.queued = value
		a.hasQueued = value != a.lastRequested
		return
	}
	if value == a.lastRequested {
		return
	}
	a.fireLocked(value)
}

func (a *Autofill) fireLocked(value string) {
	a.lastRequested = value
	a.inFlight = true
	a.wg.Add(1)
	go a.run(value)
}

func (a *Autofill) run(value string) {
	defer a.wg.Done()

	candidates, err := a.lookup.Lookup(a.ctx, value)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.inFlight = false
	if err != nil {
		logger.Warn("address lookup failed", map[string]interface{}{"postal": value, "error": err.Error()})
		a.result = model.AutofillResult{Value: value, Candidates: []model.Candidate{}, Error: "Address lookup is unavailable"}
	} else {
		if candidates == nil {
			candidates = []model.Candidate{}
		}
		a.result = model.AutofillResult{Value: value, Candidates: candidates}
	}

	if a.hasQueued && !a.stopped {
		next := a.queued
		a.queued = ""
		a.hasQueued = false
		if next != a.lastRequested {
			a.fireLocked(next)
		}
	}
}

// Result returns the latest candidates
func (a *Autofill) Result() model.AutofillResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.result
	out.Candidates = append([]model.Candidate{}, a.result.Candidates...)
	out.Pending = a.debouncing || a.inFlight || a.hasQueued
	return out
}

// Wait blocks until no lookup is running
func (a *Autofill) Wait() {
	a.wg.Wait()
}

// Stop cancels the timer and any running lookup
func (a *Autofill) Stop() {
	a.mu.Lock()
	a.stopped = true
	if a.stopTimer != nil {
		a.stopTimer()
		a.stopTimer = nil
	}
	a.mu.Unlock()
	a.cancel()
}
