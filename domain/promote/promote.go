// Package promote implements the Failover Orchestrator: the atomic pair
// role swap that promotes a standby to primary when its partner's FSM
// escalates to FailingOver.
package promote

import (
	"context"
	"time"

	"github.com/clawops/fleetctl/domain/audit"
	"github.com/clawops/fleetctl/domain/failover"
	"github.com/clawops/fleetctl/domain/instance"
	cperrors "github.com/clawops/fleetctl/infrastructure/errors"
	"github.com/clawops/fleetctl/infrastructure/logging"
)

// StandbyHealthChecker refetches a standby's lifecycle state immediately
// before the swap, per step 1 ("verify standby").
type StandbyHealthChecker interface {
	StandbyState(ctx context.Context, instanceID string) (instance.LifecycleState, error)
}

// RoutingAdapter points a user's address at a new primary (step 3).
type RoutingAdapter interface {
	UpdateRouting(ctx context.Context, accountID, newPrimaryID string) error
}

// ReplacementScheduler enqueues provisioning of a fresh standby (step 4).
type ReplacementScheduler interface {
	ScheduleReplacement(ctx context.Context, accountID, formerPrimaryID string) error
}

// AuditRecorder appends one record to the durable audit chain, satisfied
// by *audit.Chain. Promote records the role swap and the replacement
// scheduling as they happen, so the chain reflects every safety-relevant
// step of the failover, not just its final outcome.
type AuditRecorder interface {
	Append(ctx context.Context, in audit.AppendInput) (string, error)
}

// StepResult records one ordered step's outcome.
type StepResult struct {
	Name     string
	Started  time.Time
	Finished time.Time
	Err      error
}

func (s StepResult) Duration() time.Duration { return s.Finished.Sub(s.Started) }

// Summary is the orchestrator's terminal report for one failover attempt.
type Summary struct {
	AccountID     string
	FormerPrimary string
	NewPrimary    string
	Swapped       instance.Pair
	Steps         []StepResult
	Success       bool
}

// Orchestrator executes atomic pair role swaps.
type Orchestrator struct {
	pairs     *instance.Registry
	fsms      *failover.Registry
	health    StandbyHealthChecker
	routing   RoutingAdapter
	scheduler ReplacementScheduler
	chain     AuditRecorder
	log       *logging.Logger
}

// New builds a Failover Orchestrator.
func New(pairs *instance.Registry, fsms *failover.Registry, health StandbyHealthChecker, routing RoutingAdapter, scheduler ReplacementScheduler, chain AuditRecorder, log *logging.Logger) *Orchestrator {
	return &Orchestrator{pairs: pairs, fsms: fsms, health: health, routing: routing, scheduler: scheduler, chain: chain, log: log}
}

func (o *Orchestrator) recordAudit(ctx context.Context, action audit.ActionKind, accountID string, params map[string]any, result string) {
	if o.chain == nil {
		return
	}
	_, err := o.chain.Append(ctx, audit.AppendInput{
		Actor:      "fleetctl-orchestrator",
		Action:     string(action),
		TargetType: "pair",
		TargetID:   accountID,
		Parameters: params,
		Result:     result,
	})
	if err != nil {
		o.log.WithContext(ctx).WithField("error", err).Warn("audit append failed")
	}
}

// Promote runs the five ordered steps of a failover for accountID, whose
// primary (formerPrimaryID) has exhausted heal attempts: verify standby,
// swap roles, update routing, schedule a replacement, and record the
// outcome.
func (o *Orchestrator) Promote(ctx context.Context, accountID, formerPrimaryID string) (Summary, error) {
	summary := Summary{AccountID: accountID, FormerPrimary: formerPrimaryID}

	pair, ok := o.pairs.Get(accountID)
	if !ok {
		return summary, cperrors.InvalidInput("account_id", "no pair registered").WithDetail("account_id", accountID)
	}
	standbyID, err := pair.Other(formerPrimaryID)
	if err != nil {
		return summary, cperrors.InvalidInput("instance_id", err.Error())
	}

	// Step 1: verify standby.
	verify := runStep("verify_standby", func() error {
		state, err := o.health.StandbyState(ctx, standbyID)
		if err != nil {
			return err
		}
		if state != instance.StateActive {
			return cperrors.InvariantViolation("standby is not active; aborting failover with no mutation").
				WithDetail("standby_id", standbyID).WithDetail("state", state)
		}
		return nil
	})
	summary.Steps = append(summary.Steps, verify)
	if verify.Err != nil {
		return summary, verify.Err
	}

	// Step 2: update pair binding (flip roles in the in-memory pair
	// registry; nothing here writes the swap to disk).
	var swapped instance.Pair
	update := runStep("update_pair_binding", func() error {
		s, err := o.pairs.Swap(accountID)
		if err != nil {
			return err
		}
		swapped = s
		return nil
	})
	summary.Steps = append(summary.Steps, update)
	if update.Err != nil {
		return summary, update.Err
	}
	summary.NewPrimary = standbyID

	// Step 3: update routing. This is the step that restores user
	// traffic; its success is required for the overall swap to succeed.
	routeStep := runStep("update_routing", func() error {
		return o.routing.UpdateRouting(ctx, accountID, standbyID)
	})
	summary.Steps = append(summary.Steps, routeStep)
	if routeStep.Err != nil {
		unwind := runStep("unwind_pair_binding", func() error {
			_, err := o.pairs.Swap(accountID)
			return err
		})
		summary.Steps = append(summary.Steps, unwind)
		if unwind.Err != nil {
			violation := cperrors.InvariantViolation("routing update failed and unwind also failed; double-primary risk").
				WithDetail("account_id", accountID).
				WithDetail("routing_err", routeStep.Err.Error()).
				WithDetail("unwind_err", unwind.Err.Error())
			o.log.LogTransition(ctx, formerPrimaryID, "failing_over", "failed", "unwind_failed")
			return summary, violation
		}
		return summary, routeStep.Err
	}

	o.recordAudit(ctx, audit.ActionPromoteStandby, accountID,
		map[string]any{"former_primary": formerPrimaryID, "new_primary": standbyID}, "success")

	// Step 4: schedule replacement standby provisioning.
	schedule := runStep("schedule_replacement", func() error {
		return o.scheduler.ScheduleReplacement(ctx, accountID, formerPrimaryID)
	})
	summary.Steps = append(summary.Steps, schedule)

	scheduleResult := "success"
	if schedule.Err != nil {
		scheduleResult = "failed"
	}
	o.recordAudit(ctx, audit.ActionScheduleReprovision, accountID,
		map[string]any{"former_primary": formerPrimaryID}, scheduleResult)

	// Step 5: notify.
	o.log.LogTransition(ctx, formerPrimaryID, "failing_over", "failed", "promoted_standby")
	o.log.LogTransition(ctx, standbyID, "standby", "primary", "promoted")

	if st, ok := o.fsms.Get(formerPrimaryID); ok && st.Kind == failover.KindFailingOver {
		if machine := o.fsms.Ensure(formerPrimaryID, instance.RolePrimary); machine != nil {
			_ = machine.CompleteFailover()
		}
	}

	summary.Swapped = swapped
	summary.Success = true
	return summary, nil
}

func runStep(name string, fn func() error) StepResult {
	s := StepResult{Name: name, Started: time.Now()}
	s.Err = fn()
	s.Finished = time.Now()
	return s
}
