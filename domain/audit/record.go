// Package audit implements the Audit Chain: an append-only, hash-linked,
// tamper-evident record of every safety-relevant action.
package audit

import "time"

// Record is one immutable entry in the chain. Never mutated after
// creation.
type Record struct {
	ID            string
	CorrelationID string
	Timestamp     time.Time
	Actor         string // agent id
	Action        string
	TargetType    string
	TargetID      string
	Parameters    map[string]any
	Result        string

	OperatorConfirmation bool

	PreviousHash string // hex of predecessor's RecordHash; empty for genesis
	RecordHash   string // hex SHA-256 of this record's canonical form, excluding RecordHash itself
}

// ActionKind enumerates the safety-relevant action kinds that must appear
// in the audit chain.
type ActionKind string

const (
	ActionProvisionPrimary         ActionKind = "ProvisionPrimary"
	ActionProvisionStandby         ActionKind = "ProvisionStandby"
	ActionTeardownInstance         ActionKind = "TeardownInstance"
	ActionResizeInstance           ActionKind = "ResizeInstance"
	ActionInitiateAutoHeal         ActionKind = "InitiateAutoHeal"
	ActionRestartGateway           ActionKind = "RestartGateway"
	ActionTriggerFailover          ActionKind = "TriggerFailover"
	ActionPromoteStandby           ActionKind = "PromoteStandby"
	ActionScheduleReprovision      ActionKind = "ScheduleReprovision"
	ActionPushConfig               ActionKind = "PushConfig"
	ActionRollbackConfig           ActionKind = "RollbackConfig"
	ActionUpdateProviderSelection  ActionKind = "UpdateProviderSelection"
	ActionOperatorConfirmationRecv ActionKind = "OperatorConfirmationReceived"
	ActionAgentSpawned             ActionKind = "AgentSpawned"
	ActionAgentTerminated          ActionKind = "AgentTerminated"
)
