// Package failover implements the per-instance auto-heal -> failover ->
// escalation state machine. The machine is pure: it never performs I/O.
// A driver consumes the emitted Event and calls the agent RPC endpoint,
// the Failover Orchestrator, or an escalation channel.
package failover

import (
	"fmt"
	"time"

	"github.com/clawops/fleetctl/domain/instance"
)

// MaxHealAttempts is a hard constant: changing it requires updating
// audit and tests.
const MaxHealAttempts = 3

// StateKind identifies which variant of State is populated.
type StateKind string

const (
	KindNormal      StateKind = "normal"
	KindHealing     StateKind = "healing"
	KindFailingOver StateKind = "failing_over"
	KindFailed      StateKind = "failed"
)

// State is the FSM's current variant. Exactly one of the kind-specific
// fields is meaningful, selected by Kind.
type State struct {
	Kind      StateKind
	Attempt   int       // Healing{attempt}
	Since     time.Time // FailingOver{since}
	Reason    string    // Failed{reason}
	Escalated bool      // Failed{escalated}
}

// Normal constructs the initial/reset state.
func Normal() State { return State{Kind: KindNormal} }

// Event is the side-effecting action the FSM recommends; the driver is
// responsible for actually performing it.
type Event string

const (
	EventNoAction           Event = "no_action"
	EventAttemptRestart     Event = "attempt_restart"
	EventLogRecovered       Event = "log_recovered"
	EventInitiateFailover   Event = "initiate_failover"
	EventEscalateToCommander Event = "escalate_to_commander"
)

// Transition is the result of feeding one tick into the machine.
type Transition struct {
	From    State
	To      State
	Event   Event
	Attempt int // populated for AttemptRestart
}

// Machine holds one instance's current FailoverState and role, and
// computes transitions. Callers serialize transitions per instance;
// different instances may transition concurrently via the Registry.
type Machine struct {
	InstanceID string
	Role       instance.Role
	state      State
}

// NewMachine starts an instance in the Normal state.
func NewMachine(instanceID string, role instance.Role) *Machine {
	return &Machine{InstanceID: instanceID, Role: role, state: Normal()}
}

// State returns the machine's current state.
func (m *Machine) State() State { return m.state }

// RecoveryScore is the score at/above which a Healing instance is
// considered recovered. Distinct from HealthThresholds.DegradedScore so
// the FSM's recovery bar can be tuned independently of the scorer's
// "no alert" bar; defaults to the same value the scorer's DegradedScore
// uses.
const RecoveryScore = 70

// Tick advances the machine given the current health score and whether
// the pair's standby is active.
func (m *Machine) Tick(score int, standbyActive bool, criticalScore int) Transition {
	from := m.state
	var to State
	var ev Event

	switch from.Kind {
	case KindNormal:
		if score < criticalScore {
			to = State{Kind: KindHealing, Attempt: 1}
			ev = EventAttemptRestart
		} else {
			to = from
			ev = EventNoAction
		}

	case KindHealing:
		if score >= RecoveryScore {
			to = Normal()
			ev = EventLogRecovered
		} else if from.Attempt < MaxHealAttempts {
			to = State{Kind: KindHealing, Attempt: from.Attempt + 1}
			ev = EventAttemptRestart
		} else if m.Role == instance.RolePrimary && standbyActive {
			to = State{Kind: KindFailingOver, Since: time.Now()}
			ev = EventInitiateFailover
		} else {
			to = State{Kind: KindFailed, Reason: failureReason(m.Role, standbyActive), Escalated: true}
			ev = EventEscalateToCommander
		}

	case KindFailingOver:
		// The FSM itself never observes orchestrator success; that
		// transition is driven explicitly via CompleteFailover/FailFailover
		// by the driver once the orchestrator reports its outcome.
		to = from
		ev = EventNoAction

	case KindFailed:
		// Only exits via operator Reset().
		to = from
		ev = EventNoAction

	default:
		to = from
		ev = EventNoAction
	}

	m.state = to
	return Transition{From: from, To: to, Event: ev, Attempt: to.Attempt}
}

func failureReason(role instance.Role, standbyActive bool) string {
	if role == instance.RoleStandby {
		return "standby exhausted heal attempts"
	}
	if !standbyActive {
		return "primary exhausted heal attempts with no active standby"
	}
	return "exhausted heal attempts"
}

// CompleteFailover transitions a FailingOver machine back to Normal once
// the Failover Orchestrator reports success; the pair's roles have
// already been reversed at the Registry level by that point, so the
// former primary re-enters Normal under its new (standby) role.
func (m *Machine) CompleteFailover() error {
	if m.state.Kind != KindFailingOver {
		return fmt.Errorf("failover: instance %s is not FailingOver (state=%s)", m.InstanceID, m.state.Kind)
	}
	m.state = Normal()
	return nil
}

// FailFailover transitions a FailingOver machine to Failed when the
// orchestrator could not complete the swap: unwind is attempted, and if
// unwind also fails the incident escalates as a hard safety violation --
// that escalation is handled by the driver, not here.
func (m *Machine) FailFailover(reason string) error {
	if m.state.Kind != KindFailingOver {
		return fmt.Errorf("failover: instance %s is not FailingOver (state=%s)", m.InstanceID, m.state.Kind)
	}
	m.state = State{Kind: KindFailed, Reason: reason, Escalated: true}
	return nil
}

// Reset is the only way out of Failed, per an explicit operator action.
func (m *Machine) Reset() {
	m.state = Normal()
}
