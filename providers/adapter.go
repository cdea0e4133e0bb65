// Package providers defines the capability interface cloud providers
// implement and a registry for looking adapters up by name, wrapped in
// circuit breaking and retry.
package providers

import (
	"context"
	"time"

	"github.com/clawops/fleetctl/domain/instance"
)

// ProvisionRequest describes a new instance to create.
type ProvisionRequest struct {
	AccountID string
	Provider  instance.Provider
	Region    string
	Tier      instance.Tier
	Role      instance.Role
	PairID    string // partner instance id, if provisioning the second half of a pair
}

// ProvisionResult is what a successful provision call returns.
type ProvisionResult struct {
	InstanceID  string
	PublicIP    string
	ProviderRef string // provider-native id, e.g. EC2 instance id
	ReadyAt     time.Time
}

// ResizeResult reports the outcome of an in-place or replace resize.
type ResizeResult struct {
	InstanceID string
	NewTier    instance.Tier
	Live       bool // true if resized without a restart
}

// HealthSummary is a provider-level (not instance-level) health signal,
// consulted by the Commander's provider selection policy.
type HealthSummary struct {
	Provider    instance.Provider
	HealthScore int // [0,100]
	HasIncident bool
}

// Region is an available deployment region for a provider.
type Region struct {
	Code      string
	Continent string
}

// Adapter is the five-operation capability interface every provider
// implementation must satisfy.
type Adapter interface {
	Provision(ctx context.Context, req ProvisionRequest) (ProvisionResult, error)
	Teardown(ctx context.Context, providerRef, accountID string) error
	Resize(ctx context.Context, providerRef string, newTier instance.Tier) (ResizeResult, error)
	ProviderHealth(ctx context.Context) (HealthSummary, error)
	SupportedRegions(ctx context.Context) ([]Region, error)

	// SupportsLiveResize reports whether Resize can run without
	// terminating the instance.
	SupportsLiveResize() bool
}
