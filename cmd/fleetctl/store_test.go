package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawops/fleetctl/domain/instance"
	"github.com/clawops/fleetctl/providers"
)

type fakeReplacementAdapter struct {
	health providers.HealthSummary
}

func (f *fakeReplacementAdapter) Provision(ctx context.Context, req providers.ProvisionRequest) (providers.ProvisionResult, error) {
	return providers.ProvisionResult{}, nil
}
func (f *fakeReplacementAdapter) Teardown(ctx context.Context, providerRef, accountID string) error {
	return nil
}
func (f *fakeReplacementAdapter) Resize(ctx context.Context, providerRef string, newTier instance.Tier) (providers.ResizeResult, error) {
	return providers.ResizeResult{}, nil
}
func (f *fakeReplacementAdapter) ProviderHealth(ctx context.Context) (providers.HealthSummary, error) {
	return f.health, nil
}
func (f *fakeReplacementAdapter) SupportedRegions(ctx context.Context) ([]providers.Region, error) {
	return []providers.Region{{Code: "us-east", Continent: "NA"}}, nil
}
func (f *fakeReplacementAdapter) SupportsLiveResize() bool { return false }

func TestMemStoreStandbyStateUnknownByDefault(t *testing.T) {
	s := newMemStore()
	state, err := s.StandbyState(context.Background(), "i-1")
	require.NoError(t, err)
	assert.Equal(t, instance.StateUnknown, state)
}

func TestMemStoreSetStateThenRead(t *testing.T) {
	s := newMemStore()
	s.setState("i-1", instance.StateActive)
	state, err := s.StandbyState(context.Background(), "i-1")
	require.NoError(t, err)
	assert.Equal(t, instance.StateActive, state)
}

func TestMemStoreUpdateRouting(t *testing.T) {
	s := newMemStore()
	require.NoError(t, s.UpdateRouting(context.Background(), "acct-1", "i-2"))
	assert.Equal(t, "i-2", s.routing["acct-1"])
}

func TestMemStoreScheduleReplacement(t *testing.T) {
	s := newMemStore()
	require.NoError(t, s.ScheduleReplacement(context.Background(), "acct-1", "i-1"))
	require.NoError(t, s.ScheduleReplacement(context.Background(), "acct-2", "i-3"))
	assert.Equal(t, []string{"acct-1", "acct-2"}, s.replaced)
}

func TestMemStoreScheduleReplacementWithNoRegistryLeavesProviderUnchosen(t *testing.T) {
	s := newMemStore()
	require.NoError(t, s.ScheduleReplacement(context.Background(), "acct-1", "i-1"))
	_, ok := s.chosen["acct-1"]
	assert.False(t, ok)
}

func TestMemStoreScheduleReplacementPicksQualifyingProvider(t *testing.T) {
	s := newMemStore()
	s.providers = providers.NewRegistry()
	s.providers.Register(instance.ProviderAWS, &fakeReplacementAdapter{
		health: providers.HealthSummary{Provider: instance.ProviderAWS, HealthScore: 80},
	})
	s.providers.Register(instance.ProviderGCP, &fakeReplacementAdapter{
		health: providers.HealthSummary{Provider: instance.ProviderGCP, HealthScore: 95},
	})

	require.NoError(t, s.ScheduleReplacement(context.Background(), "acct-1", "i-1"))
	assert.Equal(t, instance.ProviderGCP, s.chosen["acct-1"])
}
