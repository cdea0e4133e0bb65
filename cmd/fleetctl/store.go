package main

import (
	"context"
	"sync"

	"github.com/clawops/fleetctl/domain/audit"
	"github.com/clawops/fleetctl/domain/commander"
	"github.com/clawops/fleetctl/domain/instance"
	"github.com/clawops/fleetctl/infrastructure/logging"
	"github.com/clawops/fleetctl/providers"
)

// memStore is a minimal in-memory implementation of the three interfaces
// the Failover Orchestrator needs from the rest of the system: standby
// health lookup, routing updates, and replacement scheduling. A real
// deployment backs these with a DNS/load balancer adapter for routing;
// provider choice for the replacement itself goes through the same
// Registry and selection policy provisioning would use, so the CLI
// stays runnable standalone while still exercising both.
type memStore struct {
	mu        sync.Mutex
	states    map[string]instance.LifecycleState
	routing   map[string]string            // accountID -> active instance id
	replaced  []string                     // accountIDs queued for replacement, for inspection/testing
	chosen    map[string]instance.Provider // accountID -> provider picked for its replacement

	providers *providers.Registry
	chain     *audit.Chain
	log       *logging.Logger
}

func newMemStore() *memStore {
	return &memStore{
		states:  make(map[string]instance.LifecycleState),
		routing: make(map[string]string),
		chosen:  make(map[string]instance.Provider),
	}
}

func (s *memStore) setState(instanceID string, state instance.LifecycleState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[instanceID] = state
}

func (s *memStore) StandbyState(ctx context.Context, instanceID string) (instance.LifecycleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[instanceID]; ok {
		return st, nil
	}
	return instance.StateUnknown, nil
}

func (s *memStore) UpdateRouting(ctx context.Context, accountID, newPrimaryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routing[accountID] = newPrimaryID
	return nil
}

// ScheduleReplacement enqueues provisioning of a fresh standby for
// accountID and picks which provider it should land on, via the same
// selection policy provisioning uses: no stated preference and no
// account-level region constraint, so the highest-scoring provider with
// a score of at least 65 and at least one supported region wins; an
// active incident does not exclude a provider on this path.
func (s *memStore) ScheduleReplacement(ctx context.Context, accountID, formerPrimaryID string) error {
	provider, ok := s.selectReplacementProvider(ctx)

	s.mu.Lock()
	s.replaced = append(s.replaced, accountID)
	if ok {
		s.chosen[accountID] = provider
	}
	s.mu.Unlock()

	if !ok {
		if s.log != nil {
			s.log.WithContext(ctx).WithField("account_id", accountID).
				Warn("no qualifying provider for replacement standby; leaving unscheduled pending operator choice")
		}
		return nil
	}

	if s.chain != nil {
		_, _ = s.chain.Append(ctx, audit.AppendInput{
			Actor:      "fleetctl-orchestrator",
			Action:     string(audit.ActionUpdateProviderSelection),
			TargetType: "pair",
			TargetID:   accountID,
			Parameters: map[string]any{"former_primary": formerPrimaryID, "provider": string(provider)},
			Result:     "selected",
		})
	}
	return nil
}

func (s *memStore) selectReplacementProvider(ctx context.Context) (instance.Provider, bool) {
	if s.providers == nil {
		return "", false
	}
	var candidates []commander.Candidate
	for _, h := range s.providers.AllHealth(ctx) {
		regions := []providers.Region(nil)
		if adapter, ok := s.providers.Get(h.Provider); ok {
			if r, err := adapter.SupportedRegions(ctx); err == nil {
				regions = r
			}
		}
		candidates = append(candidates, commander.Candidate{
			Provider:    h.Provider,
			HealthScore: h.HealthScore,
			HasIncident: h.HasIncident,
			Regions:     regions,
		})
	}
	return commander.SelectProvider("", false, "", candidates)
}
