package gateway

import (
	"fmt"

	"storefront-backend/internal/domains/payment/model"
)

// Registry picks the provider for each flow from configuration
type Registry struct {
	providers map[string]Provider
	byFlow    map[model.Flow]Provider
}

// NewRegistry registers providers by name and binds the configured names to
// their flows. A provider bound to a flow it does not implement is rejected.
func NewRegistry(singlePhase, twoPhase string, providers ...Provider) (*Registry, error) {
	r := &Registry{
		providers: make(map[string]Provider, len(providers)),
		byFlow:    make(map[model.Flow]Provider, 2),
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}

	for flow, name := range map[model.Flow]string{
		model.FlowSinglePhase: singlePhase,
		model.FlowTwoPhase:    twoPhase,
	} {
		if name == "" {
			continue
		}
		p, ok := r.providers[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedProvider, name)
		}
		if p.Flow() != flow {
			return nil, fmt.Errorf("%w: %q is %s, configured for %s", model.ErrProviderFlowMismatch, name, p.Flow(), flow)
		}
		r.byFlow[flow] = p
	}
	return r, nil
}

func (r *Registry) ForFlow(flow model.Flow) (Provider, error) {
	p, ok := r.byFlow[flow]
	if !ok {
		return nil, fmt.Errorf("%w: no provider configured for %s", model.ErrUnsupportedProvider, flow)
	}
	return p, nil
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedProvider, name)
	}
	return p, nil
}
