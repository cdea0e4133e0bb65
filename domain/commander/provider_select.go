package commander

import (
	"github.com/clawops/fleetctl/domain/instance"
	"github.com/clawops/fleetctl/providers"
)

// Candidate is one provider's current standing, as seen by the
// selection policy.
type Candidate struct {
	Provider    instance.Provider
	HealthScore int
	HasIncident bool
	Regions     []providers.Region
}

// SelectProvider implements the provider selection policy used during
// provisioning and failover replacement: prefer the caller's
// stated provider if it qualifies; otherwise pick the highest-scoring
// qualifying alternative. Returns ok=false if none qualify.
func SelectProvider(stated instance.Provider, hasStated bool, continent string, candidates []Candidate) (instance.Provider, bool) {
	if hasStated {
		for _, c := range candidates {
			if c.Provider == stated && c.HealthScore >= 75 && !c.HasIncident && hasRegionOnContinent(c.Regions, continent) {
				return c.Provider, true
			}
		}
	}

	best := instance.Provider("")
	bestScore := -1
	for _, c := range candidates {
		if c.HealthScore < 65 || !hasRegionOnContinent(c.Regions, continent) {
			continue
		}
		if c.HealthScore > bestScore {
			best = c.Provider
			bestScore = c.HealthScore
		}
	}
	if bestScore < 0 {
		return "", false
	}
	return best, true
}

// hasRegionOnContinent reports whether any of regions is on continent.
// An empty continent is a wildcard: a caller with no continent
// preference (e.g. an automatic replacement with no account-level
// locality data) matches any non-empty region set, so a candidate is not
// rejected for a continent the caller never named; a candidate with no
// regions at all is still rejected.
func hasRegionOnContinent(regions []providers.Region, continent string) bool {
	if continent == "" {
		return len(regions) > 0
	}
	for _, r := range regions {
		if r.Continent == continent {
			return true
		}
	}
	return false
}
