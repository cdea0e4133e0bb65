// Package incident implements the Incident Ledger: lifecycle of
// multi-instance incidents, severity classification, timeline, and
// root-cause inference.
package incident

import (
	"fmt"
	"strings"
	"time"
)

// Severity is ordered P1 (most severe) through P4.
type Severity string

const (
	P1 Severity = "P1"
	P2 Severity = "P2"
	P3 Severity = "P3"
	P4 Severity = "P4"
)

var severityRank = map[Severity]int{P1: 4, P2: 3, P3: 2, P4: 1}

// MoreSevere reports whether s outranks other (P1 > P2 > P3 > P4).
func (s Severity) MoreSevere(other Severity) bool {
	return severityRank[s] > severityRank[other]
}

// Status is an incident's lifecycle state.
type Status string

const (
	StatusOpen          Status = "open"
	StatusInvestigating Status = "investigating"
	StatusMitigated     Status = "mitigated"
	StatusResolved      Status = "resolved"
)

// RootCause is the inferred cause category.
type RootCause string

const (
	CauseProviderOutage     RootCause = "provider_outage"
	CauseNetworkIssue       RootCause = "network_issue"
	CauseResourceExhaustion RootCause = "resource_exhaustion"
	CauseSoftwareBug        RootCause = "software_bug"
	CauseUnknown            RootCause = "unknown"
)

// Confidence rates how sure the root-cause inference is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// TimelineEntry is one recorded event in an incident's history.
type TimelineEntry struct {
	Timestamp time.Time
	Actor     string
	Action    string
	Outcome   string
}

// RootCauseAssessment pairs an inferred cause with a confidence level.
type RootCauseAssessment struct {
	Cause      RootCause
	Confidence Confidence
}

// Incident is a multi-instance event tracked from detection to
// resolution.
type Incident struct {
	ID                string
	Severity          Severity
	Status            Status
	AffectedInstances map[string]struct{}
	Timeline          []TimelineEntry
	RootCause         *RootCauseAssessment
	ActionsTaken      []string
	CreatedAt         time.Time
	ResolvedAt        *time.Time
	DataLossRisk      bool
	AffectedUsers     int
}

// HealthEvent is the triggering signal that creates an Incident.
type HealthEvent struct {
	InstanceID    string
	AffectedUsers int
	DataLossRisk  bool
	FailingChecks []string
}

// ClassifySeverity maps data-loss risk and affected-user count to a
// severity band.
func ClassifySeverity(dataLossRisk bool, affectedUsers int) Severity {
	switch {
	case dataLossRisk || affectedUsers > 50:
		return P1
	case affectedUsers > 10:
		return P2
	case affectedUsers >= 1:
		return P3
	default:
		return P4
	}
}

// New creates an Incident from a triggering HealthEvent.
func New(id string, ev HealthEvent, now time.Time) *Incident {
	inc := &Incident{
		ID:                id,
		Severity:          ClassifySeverity(ev.DataLossRisk, ev.AffectedUsers),
		Status:            StatusOpen,
		AffectedInstances: make(map[string]struct{}),
		CreatedAt:         now,
		DataLossRisk:      ev.DataLossRisk,
		AffectedUsers:     ev.AffectedUsers,
	}
	if ev.InstanceID != "" {
		inc.AffectedInstances[ev.InstanceID] = struct{}{}
	}
	inc.AddTimelineEntry(now, "system", "incident_created", "open")
	return inc
}

// AddTimelineEntry appends an ordered timeline entry.
func (i *Incident) AddTimelineEntry(ts time.Time, actor, action, outcome string) {
	i.Timeline = append(i.Timeline, TimelineEntry{Timestamp: ts, Actor: actor, Action: action, Outcome: outcome})
}

// UpdateStatus transitions status, setting ResolvedAt iff moving to
// Resolved and clearing it otherwise.
func (i *Incident) UpdateStatus(status Status, now time.Time) {
	i.Status = status
	if status == StatusResolved {
		t := now
		i.ResolvedAt = &t
	} else {
		i.ResolvedAt = nil
	}
}

// AddAffectedInstance records an instance with set semantics (dedup on
// instance id).
func (i *Incident) AddAffectedInstance(instanceID string) {
	i.AffectedInstances[instanceID] = struct{}{}
}

// DetermineRootCause infers a probable cause from the incident's current
// affected-instance count and the supplied failing health check names.
func (i *Incident) DetermineRootCause(failingChecks []string) RootCauseAssessment {
	var cause RootCause
	switch {
	case len(i.AffectedInstances) > 10:
		cause = CauseProviderOutage
	case containsAny(failingChecks, "tailscale", "network"):
		cause = CauseNetworkIssue
	case containsAny(failingChecks, "cpu", "mem", "disk"):
		cause = CauseResourceExhaustion
	case containsAny(failingChecks, "openclaw", "docker"):
		cause = CauseSoftwareBug
	default:
		cause = CauseUnknown
	}

	var confidence Confidence
	switch {
	case len(failingChecks) > 2:
		confidence = ConfidenceHigh
	case len(failingChecks) == 1:
		confidence = ConfidenceMedium
	default:
		confidence = ConfidenceLow
	}

	assessment := RootCauseAssessment{Cause: cause, Confidence: confidence}
	i.RootCause = &assessment
	return assessment
}

func containsAny(checks []string, substrs ...string) bool {
	for _, c := range checks {
		lc := strings.ToLower(c)
		for _, s := range substrs {
			if strings.Contains(lc, s) {
				return true
			}
		}
	}
	return false
}

// Report is generated by GenerateReport; Summary and NextSteps carry the
// human-readable fields an operator-facing dashboard would render.
type Report struct {
	IncidentID string
	Severity   Severity
	Status     Status
	Summary    string
	NextSteps  []string
}

// GenerateReport renders a human-readable summary and next-step list.
// P1 incidents always carry a mandatory Commander escalation step.
func (i *Incident) GenerateReport() Report {
	r := Report{IncidentID: i.ID, Severity: i.Severity, Status: i.Status}
	r.Summary = fmt.Sprintf("%s incident %s affecting %d instance(s), status=%s",
		i.Severity, i.ID, len(i.AffectedInstances), i.Status)
	if i.RootCause != nil {
		r.Summary += fmt.Sprintf(", root cause=%s (%s confidence)", i.RootCause.Cause, i.RootCause.Confidence)
	}

	if i.Severity == P1 {
		r.NextSteps = append(r.NextSteps,
			"CRITICAL: escalate to Commander",
			"verify zero users without an active gateway",
		)
	}
	if i.RootCause != nil {
		switch i.RootCause.Cause {
		case CauseProviderOutage:
			r.NextSteps = append(r.NextSteps, "check provider status page and failover qualifying instances")
		case CauseNetworkIssue:
			r.NextSteps = append(r.NextSteps, "inspect tailscale mesh connectivity")
		case CauseResourceExhaustion:
			r.NextSteps = append(r.NextSteps, "consider tier resize or load shedding")
		case CauseSoftwareBug:
			r.NextSteps = append(r.NextSteps, "restart affected service and file a defect")
		}
	}
	if i.Status != StatusResolved && len(r.NextSteps) == 0 {
		r.NextSteps = append(r.NextSteps, "continue monitoring")
	}
	return r
}
