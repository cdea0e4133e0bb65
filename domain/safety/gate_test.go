package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_BlocksPrimaryTeardownWithoutStandby(t *testing.T) {
	a := Action{Kind: ActionTeardown, IsPrimaryTeardown: true, StandbyConfirmedActive: false, HasAuditLogEntry: true}
	d := Evaluate(a, DefaultRules())
	assert.Equal(t, OutcomeBlocked, d.Outcome)
	assert.Equal(t, "teardown requires active standby", d.Reason)
}

func TestEvaluate_ApprovesPrimaryTeardownWithActiveStandby(t *testing.T) {
	a := Action{Kind: ActionTeardown, IsPrimaryTeardown: true, StandbyConfirmedActive: true, HasAuditLogEntry: true}
	d := Evaluate(a, DefaultRules())
	assert.Equal(t, OutcomeApproved, d.Outcome)
}

func TestEvaluate_BlocksTeardownWithoutAuditEntry(t *testing.T) {
	a := Action{Kind: ActionTeardown, HasAuditLogEntry: false}
	d := Evaluate(a, DefaultRules())
	assert.Equal(t, OutcomeBlocked, d.Outcome)
	assert.Equal(t, "provider delete requires prior audit entry", d.Reason)
}

func TestEvaluate_BlocksOversizedDirectConfigPush(t *testing.T) {
	a := Action{Kind: ActionConfigPush, AffectedInstanceCount: 101}
	d := Evaluate(a, DefaultRules())
	assert.Equal(t, OutcomeBlocked, d.Outcome)
	assert.Equal(t, "rolling validation required", d.Reason)
}

func TestEvaluate_AllowsConfigPushAtExactThreshold(t *testing.T) {
	a := Action{Kind: ActionConfigPush, AffectedInstanceCount: 100}
	d := Evaluate(a, DefaultRules())
	assert.Equal(t, OutcomeApproved, d.Outcome)
}

func TestEvaluate_RequiresConfirmationForUserCount(t *testing.T) {
	a := Action{Kind: ActionCost, AffectedUsers: 11, HasAuditLogEntry: true}
	d := Evaluate(a, DefaultRules())
	assert.Equal(t, OutcomeRequiresConfirmation, d.Outcome)
}

func TestEvaluate_AllowsUserCountAtExactThreshold(t *testing.T) {
	a := Action{Kind: ActionCost, AffectedUsers: 10}
	d := Evaluate(a, DefaultRules())
	assert.Equal(t, OutcomeApproved, d.Outcome)
}

func TestEvaluate_RequiresConfirmationForCostSpike(t *testing.T) {
	a := Action{Kind: ActionCost, EstimatedCostChangePct: 21}
	d := Evaluate(a, DefaultRules())
	assert.Equal(t, OutcomeRequiresConfirmation, d.Outcome)
}

func TestEvaluate_FallsThroughToApproved(t *testing.T) {
	a := Action{Kind: ActionProvision}
	d := Evaluate(a, DefaultRules())
	assert.Equal(t, OutcomeApproved, d.Outcome)
}

func TestEvaluate_TeardownCheckPrecedesConfirmationChecks(t *testing.T) {
	a := Action{Kind: ActionTeardown, IsPrimaryTeardown: true, StandbyConfirmedActive: false, AffectedUsers: 1000}
	d := Evaluate(a, DefaultRules())
	assert.Equal(t, OutcomeBlocked, d.Outcome, "blocked check must win over confirmation checks")
}

func TestLoadRules_MissingFileReturnsDefaults(t *testing.T) {
	rules, err := LoadRules("/nonexistent/path/rules.yaml")
	assert.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}
