package safety

import (
	"os"

	"gopkg.in/yaml.v3"
)

// fileRules mirrors Rules with yaml tags for the operator-editable
// overlay file; kept distinct from Rules so the wire format can evolve
// independently of the in-memory struct.
type fileRules struct {
	MaxAffectedUsersWithoutConfirm *int     `yaml:"max_affected_users_without_confirm"`
	MaxCostSpikePercent            *float64 `yaml:"max_cost_spike_percent"`
	MaxInstancesDirectConfigPush   *int     `yaml:"max_instances_direct_config_push"`
	RequireStandbyBeforeTeardown   *bool    `yaml:"require_standby_before_teardown"`
	RequireAuditBeforeDelete       *bool    `yaml:"require_audit_before_delete"`
}

// LoadRules starts from DefaultRules and overlays any fields present in
// the YAML file at path. A missing file is not an error; it simply
// leaves the defaults in place.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return rules, nil
	}
	if err != nil {
		return rules, err
	}

	var overlay fileRules
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return rules, err
	}

	if overlay.MaxAffectedUsersWithoutConfirm != nil {
		rules.MaxAffectedUsersWithoutConfirm = *overlay.MaxAffectedUsersWithoutConfirm
	}
	if overlay.MaxCostSpikePercent != nil {
		rules.MaxCostSpikePercent = *overlay.MaxCostSpikePercent
	}
	if overlay.MaxInstancesDirectConfigPush != nil {
		rules.MaxInstancesDirectConfigPush = *overlay.MaxInstancesDirectConfigPush
	}
	if overlay.RequireStandbyBeforeTeardown != nil {
		rules.RequireStandbyBeforeTeardown = *overlay.RequireStandbyBeforeTeardown
	}
	if overlay.RequireAuditBeforeDelete != nil {
		rules.RequireAuditBeforeDelete = *overlay.RequireAuditBeforeDelete
	}
	return rules, nil
}
