package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domains/address/model"
	"storefront-backend/internal/domains/address/service"
)

// manualClock hands out timers the test fires by hand
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (c *manualClock) schedule(_ time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.timers = append(c.timers, t)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		wasActive := !t.stopped
		t.stopped = true
		return wasActive
	}
}

// elapse fires every timer that has not been stopped
func (c *manualClock) elapse() {
	c.mu.Lock()
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped {
			t.stopped = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

// gatedLookup blocks each call until released and tracks concurrency
type gatedLookup struct {
	mu          sync.Mutex
	calls       []string
	inFlight    int
	maxInFlight int
	started     chan string
	release     chan struct{}
}

func newGatedLookup() *gatedLookup {
	return &gatedLookup{started: make(chan string, 16), release: make(chan struct{}, 16)}
}

func (g *gatedLookup) Lookup(ctx context.Context, postal string) ([]model.Candidate, error) {
	g.mu.Lock()
	g.calls = append(g.calls, postal)
	g.inFlight++
	if g.inFlight > g.maxInFlight {
		g.maxInFlight = g.inFlight
	}
	g.mu.Unlock()

	g.started <- postal
	select {
	case <-g.release:
	case <-ctx.Done():
	}

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
	return []model.Candidate{{Line1: "1 High St", City: "London", Country: "GB"}}, nil
}

func (g *gatedLookup) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func newAutofill(lookup service.Lookup) (*service.Autofill, *manualClock) {
	clock := &manualClock{}
	af := service.NewAutofill(lookup, service.AutofillConfig{
		Debounce:  800 * time.Millisecond,
		MinLength: 3,
		Schedule:  clock.schedule,
	})
	return af, clock
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "SW1A 1AA", service.Normalize("  sw1a   1aa "))
	assert.Equal(t, "", service.Normalize(" \t "))
}

func TestAutofillShortValueNeverFires(t *testing.T) {
	lookup := newGatedLookup()
	af, clock := newAutofill(lookup)
	defer af.Stop()

	af.Input(" s   w")
	af.Input(" sw ")
	clock.elapse()
	af.Wait()

	assert.Empty(t, lookup.Calls())
	assert.False(t, af.Result().Pending)
}

func TestAutofillDebounceKeepsLastValue(t *testing.T) {
	lookup := newGatedLookup()
	af, clock := newAutofill(lookup)
	defer af.Stop()

	af.Input("SW1")
	af.Input("SW1A")
	assert.Equal(t, "SW1A 1AA", af.Input("sw1a  1aa"))
	assert.True(t, af.Result().Pending)

	clock.elapse()
	require.Equal(t, "SW1A 1AA", <-lookup.started)
	lookup.release <- struct{}{}
	af.Wait()

	assert.Equal(t, []string{"SW1A 1AA"}, lookup.Calls())
	res := af.Result()
	assert.Equal(t, "SW1A 1AA", res.Value)
	assert.Len(t, res.Candidates, 1)
	assert.False(t, res.Pending)
}

func TestAutofillSuppressesRepeatOfLastRequested(t *testing.T) {
	lookup := newGatedLookup()
	af, clock := newAutofill(lookup)
	defer af.Stop()

	af.Input("EC1A 1BB")
	clock.elapse()
	<-lookup.started
	lookup.release <- struct{}{}
	af.Wait()

	af.Input(" ec1a 1bb")
	clock.elapse()
	af.Wait()

	assert.Equal(t, []string{"EC1A 1BB"}, lookup.Calls())
}

func TestAutofillQueuesOneValueWhileInFlight(t *testing.T) {
	lookup := newGatedLookup()
	af, clock := newAutofill(lookup)
	defer af.Stop()

	af.Input("N1 9GU")
	clock.elapse()
	require.Equal(t, "N1 9GU", <-lookup.started)

	// two values settle while the first lookup is running
	af.Input("E1 6AN")
	clock.elapse()
	af.Input("W1A 0AX")
	clock.elapse()
	assert.True(t, af.Result().Pending)

	lookup.release <- struct{}{}
	require.Equal(t, "W1A 0AX", <-lookup.started)
	lookup.release <- struct{}{}
	af.Wait()

	assert.Equal(t, []string{"N1 9GU", "W1A 0AX"}, lookup.Calls())
	assert.Equal(t, 1, lookup.maxInFlight)
	assert.Equal(t, "W1A 0AX", af.Result().Value)
}

func TestAutofillQueuedValueIsNeverDropped(t *testing.T) {
	lookup := newGatedLookup()
	af, clock := newAutofill(lookup)
	defer af.Stop()

	af.Input("N1 9GU")
	clock.elapse()
	<-lookup.started

	af.Input("E1 6AN")
	clock.elapse()

	lookup.release <- struct{}{}
	require.Equal(t, "E1 6AN", <-lookup.started)
	lookup.release <- struct{}{}
	af.Wait()

	assert.Equal(t, []string{"N1 9GU", "E1 6AN"}, lookup.Calls())
}

func TestAutofillReturningToInFlightValueDropsQueued(t *testing.T) {
	lookup := newGatedLookup()
	af, clock := newAutofill(lookup)
	defer af.Stop()

	af.Input("SW1A 1AA")
	clock.elapse()
	require.Equal(t, "SW1A 1AA", <-lookup.started)

	// the shopper types another code, then goes back to the first one
	af.Input("N1 9GU")
	clock.elapse()
	af.Input("sw1a 1aa")
	clock.elapse()

	lookup.release <- struct{}{}
	af.Wait()

	assert.Equal(t, []string{"SW1A 1AA"}, lookup.Calls())
	res := af.Result()
	assert.Equal(t, "SW1A 1AA", res.Value)
	assert.False(t, res.Pending)
}
