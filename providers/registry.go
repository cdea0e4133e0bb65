package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/clawops/fleetctl/domain/instance"
	"github.com/clawops/fleetctl/infrastructure/resilience"
)

// Registry looks adapters up by provider name and wraps every call in a
// per-provider circuit breaker plus bounded retry. It sets no call
// timeout of its own: a call is bounded only by the caller's ctx. The
// breaker's 30s default is how long it stays open before a probe.
type Registry struct {
	mu       sync.RWMutex
	adapters map[instance.Provider]Adapter
	breakers map[instance.Provider]*resilience.CircuitBreaker
}

// NewRegistry builds an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[instance.Provider]Adapter),
		breakers: make(map[instance.Provider]*resilience.CircuitBreaker),
	}
}

// Register installs an adapter for a provider, giving it its own circuit
// breaker so one provider's outage doesn't trip another's.
func (r *Registry) Register(p instance.Provider, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[p] = a
	r.breakers[p] = resilience.New(resilience.DefaultConfig(string(p)))
}

// Get returns the raw adapter, without the breaker wrapper -- used by
// callers that need SupportsLiveResize or other non-I/O introspection.
func (r *Registry) Get(p instance.Provider) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[p]
	return a, ok
}

// Provision runs Adapter.Provision through that provider's circuit
// breaker and the package-level retry policy.
func (r *Registry) Provision(ctx context.Context, req ProvisionRequest) (ProvisionResult, error) {
	a, cb, err := r.lookup(req.Provider)
	if err != nil {
		return ProvisionResult{}, err
	}
	var out ProvisionResult
	err = cb.Execute(ctx, func() error {
		return resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
			res, err := a.Provision(ctx, req)
			if err != nil {
				return err
			}
			out = res
			return nil
		})
	})
	return out, err
}

// Teardown runs Adapter.Teardown through the provider's breaker/retry.
func (r *Registry) Teardown(ctx context.Context, p instance.Provider, providerRef, accountID string) error {
	a, cb, err := r.lookup(p)
	if err != nil {
		return err
	}
	return cb.Execute(ctx, func() error {
		return resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
			return a.Teardown(ctx, providerRef, accountID)
		})
	})
}

// Resize runs Adapter.Resize through the provider's breaker/retry.
func (r *Registry) Resize(ctx context.Context, p instance.Provider, providerRef string, newTier instance.Tier) (ResizeResult, error) {
	a, cb, err := r.lookup(p)
	if err != nil {
		return ResizeResult{}, err
	}
	var out ResizeResult
	err = cb.Execute(ctx, func() error {
		return resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
			res, err := a.Resize(ctx, providerRef, newTier)
			if err != nil {
				return err
			}
			out = res
			return nil
		})
	})
	return out, err
}

// Health runs Adapter.ProviderHealth through the provider's breaker,
// without retry -- a stale health read is worse than a fast failure.
func (r *Registry) Health(ctx context.Context, p instance.Provider) (HealthSummary, error) {
	a, cb, err := r.lookup(p)
	if err != nil {
		return HealthSummary{}, err
	}
	var out HealthSummary
	err = cb.Execute(ctx, func() error {
		res, err := a.ProviderHealth(ctx)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

// AllHealth returns a HealthSummary for every registered provider,
// skipping providers whose health check errored; provider selection
// tolerates partial data.
func (r *Registry) AllHealth(ctx context.Context) []HealthSummary {
	r.mu.RLock()
	names := make([]instance.Provider, 0, len(r.adapters))
	for p := range r.adapters {
		names = append(names, p)
	}
	r.mu.RUnlock()

	out := make([]HealthSummary, 0, len(names))
	for _, p := range names {
		if h, err := r.Health(ctx, p); err == nil {
			out = append(out, h)
		}
	}
	return out
}

func (r *Registry) lookup(p instance.Provider) (Adapter, *resilience.CircuitBreaker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[p]
	if !ok {
		return nil, nil, fmt.Errorf("providers: no adapter registered for %s", p)
	}
	return a, r.breakers[p], nil
}
