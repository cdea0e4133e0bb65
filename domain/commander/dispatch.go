package commander

import (
	"context"

	"github.com/clawops/fleetctl/domain/audit"
	"github.com/clawops/fleetctl/domain/safety"
)

// AuditRecorder appends one record to the durable audit chain, satisfied
// by *audit.Chain.
type AuditRecorder interface {
	Append(ctx context.Context, in audit.AppendInput) (string, error)
}

// destructiveAudit maps a safety.ActionKind that Dispatch builds from an
// operator intent to the audit.ActionKind its gate decision is recorded
// under. Kinds absent from this map (cost queries, anything the gate
// never blocks) are not safety-relevant and produce no audit record.
var destructiveAudit = map[safety.ActionKind]audit.ActionKind{
	safety.ActionProvision:  audit.ActionProvisionPrimary,
	safety.ActionTeardown:   audit.ActionTeardownInstance,
	safety.ActionConfigPush: audit.ActionPushConfig,
	safety.ActionTierResize: audit.ActionResizeInstance,
	safety.ActionFailover:   audit.ActionTriggerFailover,
	safety.ActionBulk:       audit.ActionTeardownInstance,
}

// BuildAction translates a classified Intent into the Action the Safety
// Gate evaluates. A free-text intent carries no instance-level context,
// so a teardown request is always treated as a primary teardown -- the
// conservative assumption, since the gate can only be too cautious here,
// never too permissive.
func BuildAction(intent Intent) safety.Action {
	switch intent.Kind {
	case IntentProvisionRequest:
		return safety.Action{Kind: safety.ActionProvision}
	case IntentTeardownRequest:
		a := safety.Action{Kind: safety.ActionTeardown, IsPrimaryTeardown: true}
		if intent.Count != nil {
			a.AffectedUsers = *intent.Count
		}
		return a
	case IntentConfigPush:
		a := safety.Action{Kind: safety.ActionConfigPush}
		if intent.Count != nil {
			a.AffectedInstanceCount = *intent.Count
		}
		return a
	case IntentBulkOperation:
		a := safety.Action{Kind: safety.ActionBulk}
		if intent.Count != nil {
			a.AffectedUsers = *intent.Count
		}
		return a
	case IntentCostQuery:
		return safety.Action{Kind: safety.ActionCost}
	default:
		return safety.Action{}
	}
}

// Dispatched is the end-to-end outcome of one operator intent: what it
// classified as, where it routed, what the Safety Gate decided, and
// whether it actually cleared to be carried out.
type Dispatched struct {
	Intent          Intent
	Target          Target
	Action          safety.Action
	GateOutcome     safety.Outcome
	GateReason      string
	Acknowledgement string
	Confirmed       bool
	Cleared         bool
}

// Dispatch is the Commander's single entry point: it classifies,
// routes, builds the Safety Gate action, evaluates the gate, records a
// destructive decision to the audit chain, and reports whether the
// intent cleared for the target engine to act on. It owns the
// end-to-end transaction so no caller assembles these steps itself.
//
// confirmed carries an operator's explicit re-submission after a prior
// RequiresConfirmation response, per the bulk-operation confirmation
// flow: a confirmed resubmission of an otherwise-identical intent is
// treated as Approved.
func Dispatch(ctx context.Context, text string, confirmed bool, rules safety.Rules, chain AuditRecorder) Dispatched {
	intent := Classify(text)
	target := Route(intent)
	action := BuildAction(intent)

	result := Dispatched{
		Intent:          intent,
		Target:          target,
		Action:          action,
		Acknowledgement: Acknowledge(intent, target),
		Confirmed:       confirmed,
	}

	if action.Kind == "" {
		result.GateOutcome = safety.OutcomeApproved
		result.Cleared = true
		return result
	}

	decision := safety.Evaluate(action, rules)
	if decision.Outcome == safety.OutcomeRequiresConfirmation && confirmed {
		decision = safety.Decision{Outcome: safety.OutcomeApproved}
	}
	result.GateOutcome = decision.Outcome
	result.GateReason = decision.Reason
	result.Cleared = decision.Outcome == safety.OutcomeApproved

	if auditKind, ok := destructiveAudit[action.Kind]; ok && chain != nil {
		_, _ = chain.Append(ctx, audit.AppendInput{
			Actor:                "fleetctl-commander",
			Action:               string(auditKind),
			TargetType:           "intent",
			TargetID:             string(target),
			Parameters:           map[string]any{"text": text, "intent_kind": string(intent.Kind)},
			Result:               string(result.GateOutcome),
			OperatorConfirmation: confirmed,
		})
	}

	return result
}
