package failover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawops/fleetctl/domain/instance"
)

const critical = 40

func TestTick_NormalToHealingOnCritical(t *testing.T) {
	m := NewMachine("i-1", instance.RolePrimary)
	tr := m.Tick(30, true, critical)
	assert.Equal(t, EventAttemptRestart, tr.Event)
	require.Equal(t, KindHealing, m.State().Kind)
	assert.Equal(t, 1, m.State().Attempt)
}

func TestTick_NormalStaysOnHealthy(t *testing.T) {
	m := NewMachine("i-1", instance.RolePrimary)
	tr := m.Tick(90, true, critical)
	assert.Equal(t, EventNoAction, tr.Event)
	assert.Equal(t, KindNormal, m.State().Kind)
}

func TestTick_HealingRecovers(t *testing.T) {
	m := NewMachine("i-1", instance.RolePrimary)
	m.Tick(30, true, critical)
	tr := m.Tick(85, true, critical)
	assert.Equal(t, EventLogRecovered, tr.Event)
	assert.Equal(t, KindNormal, m.State().Kind)
}

func TestTick_HealingEscalatesAttempts(t *testing.T) {
	m := NewMachine("i-1", instance.RolePrimary)
	m.Tick(30, true, critical) // attempt 1
	tr := m.Tick(30, true, critical) // attempt 2
	assert.Equal(t, EventAttemptRestart, tr.Event)
	assert.Equal(t, 2, m.State().Attempt)
}

func TestTick_PrimaryWithStandbyFailsOverAfterMaxAttempts(t *testing.T) {
	m := NewMachine("i-1", instance.RolePrimary)
	m.Tick(30, true, critical)                  // attempt 1
	m.Tick(30, true, critical)                  // attempt 2
	m.Tick(30, true, critical)                  // attempt 3 == MaxHealAttempts
	tr := m.Tick(30, true, critical)             // still sick after the last attempt
	assert.Equal(t, EventInitiateFailover, tr.Event)
	assert.Equal(t, KindFailingOver, m.State().Kind)
}

func TestTick_StandbyNeverInitiatesFailover(t *testing.T) {
	m := NewMachine("i-2", instance.RoleStandby)
	for i := 0; i < MaxHealAttempts; i++ {
		m.Tick(30, true, critical)
	}
	tr := m.Tick(30, true, critical)
	assert.NotEqual(t, EventInitiateFailover, tr.Event)
	assert.Equal(t, EventEscalateToCommander, tr.Event)
	assert.Equal(t, KindFailed, m.State().Kind)
	assert.True(t, m.State().Escalated)
}

func TestTick_PrimaryWithoutActiveStandbyEscalates(t *testing.T) {
	m := NewMachine("i-1", instance.RolePrimary)
	for i := 0; i < MaxHealAttempts; i++ {
		m.Tick(30, false, critical)
	}
	tr := m.Tick(30, false, critical)
	assert.Equal(t, EventEscalateToCommander, tr.Event)
	assert.Equal(t, KindFailed, m.State().Kind)
}

func TestTick_NeverExceedsMaxHealAttemptsBeforeTerminalTransition(t *testing.T) {
	m := NewMachine("i-1", instance.RolePrimary)
	var lastHealingAttempt int
	for i := 0; i < MaxHealAttempts+2; i++ {
		tr := m.Tick(30, true, critical)
		if tr.To.Kind == KindHealing {
			lastHealingAttempt = tr.To.Attempt
		}
	}
	assert.LessOrEqual(t, lastHealingAttempt, MaxHealAttempts)
	assert.Equal(t, KindFailingOver, m.State().Kind)
}

func TestFailingOver_StaysUntilDriverResolves(t *testing.T) {
	m := NewMachine("i-1", instance.RolePrimary)
	for i := 0; i < MaxHealAttempts+1; i++ {
		m.Tick(30, true, critical)
	}
	require.Equal(t, KindFailingOver, m.State().Kind)
	tr := m.Tick(10, true, critical)
	assert.Equal(t, EventNoAction, tr.Event)
	assert.Equal(t, KindFailingOver, m.State().Kind)
}

func TestCompleteFailover_RequiresFailingOverState(t *testing.T) {
	m := NewMachine("i-1", instance.RolePrimary)
	err := m.CompleteFailover()
	assert.Error(t, err)
}

func TestCompleteFailover_ReturnsFormerPrimaryToNormal(t *testing.T) {
	m := NewMachine("i-1", instance.RolePrimary)
	for i := 0; i < MaxHealAttempts+1; i++ {
		m.Tick(30, true, critical)
	}
	require.NoError(t, m.CompleteFailover())
	assert.Equal(t, KindNormal, m.State().Kind)
}

func TestFailFailover_RequiresFailingOverState(t *testing.T) {
	m := NewMachine("i-1", instance.RolePrimary)
	assert.Error(t, m.FailFailover("unwind failed"))
}

func TestFailFailover_SetsEscalated(t *testing.T) {
	m := NewMachine("i-1", instance.RolePrimary)
	for i := 0; i < MaxHealAttempts+1; i++ {
		m.Tick(30, true, critical)
	}
	require.NoError(t, m.FailFailover("routing unwind failed"))
	assert.Equal(t, KindFailed, m.State().Kind)
	assert.True(t, m.State().Escalated)
}

func TestReset_OnlyExitFromFailed(t *testing.T) {
	m := NewMachine("i-2", instance.RoleStandby)
	for i := 0; i < MaxHealAttempts; i++ {
		m.Tick(30, true, critical)
	}
	m.Tick(30, true, critical)
	require.Equal(t, KindFailed, m.State().Kind)
	m.Reset()
	assert.Equal(t, KindNormal, m.State().Kind)
}
