package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clawops/fleetctl/domain/instance"
)

// pairsFile is the on-disk declarative pairing list fleetctl loads at
// startup, the same load-or-default-then-overlay shape safety.LoadRules
// uses for its rules file. A missing file simply yields an empty fleet.
type pairsFile struct {
	Pairs []pairEntry `yaml:"pairs"`
}

type pairEntry struct {
	AccountID string `yaml:"account_id"`
	PrimaryID string `yaml:"primary_id"`
	StandbyID string `yaml:"standby_id"`
}

func loadPairsFile(path string) ([]instance.Pair, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var f pairsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	pairs := make([]instance.Pair, 0, len(f.Pairs))
	for _, e := range f.Pairs {
		pairs = append(pairs, instance.Pair{AccountID: e.AccountID, PrimaryID: e.PrimaryID, StandbyID: e.StandbyID})
	}
	return pairs, nil
}

// savePairsFile rewrites path with the full given set of pairs.
func savePairsFile(path string, pairs []instance.Pair) error {
	f := pairsFile{Pairs: make([]pairEntry, 0, len(pairs))}
	for _, p := range pairs {
		f.Pairs = append(f.Pairs, pairEntry{AccountID: p.AccountID, PrimaryID: p.PrimaryID, StandbyID: p.StandbyID})
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// upsertPair returns pairs with p inserted, replacing any existing entry
// for the same account.
func upsertPair(pairs []instance.Pair, p instance.Pair) []instance.Pair {
	for i, existing := range pairs {
		if existing.AccountID == p.AccountID {
			pairs[i] = p
			return pairs
		}
	}
	return append(pairs, p)
}
