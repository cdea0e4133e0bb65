// Package safety implements the Safety Gate: a pure, stateless predicate
// over a proposed Action that callers consult before any destructive
// mutation.
package safety

// ActionKind enumerates the kinds of mutation the gate can evaluate.
type ActionKind string

const (
	ActionProvision   ActionKind = "provision"
	ActionTeardown    ActionKind = "teardown"
	ActionConfigPush  ActionKind = "config_push"
	ActionTierResize  ActionKind = "tier_resize"
	ActionFailover    ActionKind = "failover"
	ActionBulk        ActionKind = "bulk_operation"
	ActionCost        ActionKind = "cost_action"
)

// Action is a proposed mutation presented to the gate.
type Action struct {
	Kind                   ActionKind
	AffectedUsers          int
	AffectedInstanceCount  int
	IsPrimaryTeardown      bool
	StandbyConfirmedActive bool
	EstimatedCostChangePct float64
	HasAuditLogEntry       bool
}

// Rules is the gate's configuration; callers can override any default.
type Rules struct {
	MaxAffectedUsersWithoutConfirm int
	MaxCostSpikePercent            float64
	MaxInstancesDirectConfigPush   int
	RequireStandbyBeforeTeardown   bool
	RequireAuditBeforeDelete       bool
}

// DefaultRules returns the gate's baseline thresholds.
func DefaultRules() Rules {
	return Rules{
		MaxAffectedUsersWithoutConfirm: 10,
		MaxCostSpikePercent:            20,
		MaxInstancesDirectConfigPush:   100,
		RequireStandbyBeforeTeardown:   true,
		RequireAuditBeforeDelete:       true,
	}
}

// Outcome is the gate's verdict.
type Outcome string

const (
	OutcomeApproved             Outcome = "approved"
	OutcomeRequiresConfirmation Outcome = "requires_confirmation"
	OutcomeBlocked              Outcome = "blocked"
)

// Decision is the gate's full verdict: outcome plus the cited reason for
// anything other than Approved.
type Decision struct {
	Outcome Outcome
	Reason  string
}

// Evaluate runs the ordered check table below. The gate is stateless;
// callers re-run it after obtaining operator confirmation.
func Evaluate(a Action, rules Rules) Decision {
	if a.IsPrimaryTeardown && rules.RequireStandbyBeforeTeardown && !a.StandbyConfirmedActive {
		return Decision{Outcome: OutcomeBlocked, Reason: "teardown requires active standby"}
	}
	if a.Kind == ActionTeardown && rules.RequireAuditBeforeDelete && !a.HasAuditLogEntry {
		return Decision{Outcome: OutcomeBlocked, Reason: "provider delete requires prior audit entry"}
	}
	if a.Kind == ActionConfigPush && a.AffectedInstanceCount > rules.MaxInstancesDirectConfigPush {
		return Decision{Outcome: OutcomeBlocked, Reason: "rolling validation required"}
	}
	if a.AffectedUsers > rules.MaxAffectedUsersWithoutConfirm {
		return Decision{Outcome: OutcomeRequiresConfirmation, Reason: "affected user count exceeds confirmation threshold"}
	}
	if a.EstimatedCostChangePct > rules.MaxCostSpikePercent {
		return Decision{Outcome: OutcomeRequiresConfirmation, Reason: "estimated cost change exceeds spike threshold"}
	}
	return Decision{Outcome: OutcomeApproved}
}
