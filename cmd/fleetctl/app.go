package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/clawops/fleetctl/domain/audit"
	"github.com/clawops/fleetctl/domain/failover"
	"github.com/clawops/fleetctl/domain/health"
	"github.com/clawops/fleetctl/domain/incident"
	"github.com/clawops/fleetctl/domain/instance"
	"github.com/clawops/fleetctl/domain/promote"
	"github.com/clawops/fleetctl/domain/safety"
	"github.com/clawops/fleetctl/infrastructure/config"
	"github.com/clawops/fleetctl/infrastructure/logging"
	"github.com/clawops/fleetctl/infrastructure/metrics"
	"github.com/clawops/fleetctl/providers"
)

// app wires every domain component into one set of shared, long-lived
// state, constructed once per process invocation. No package-level
// globals hold any of this; every subcommand builds its own app.
type app struct {
	log       *logging.Logger
	metrics   *metrics.Metrics
	pairsPath string
	pairs     *instance.Registry
	fsms      *failover.Registry
	chain     *audit.Chain
	rules     safety.Rules
	providers *providers.Registry
	orch      *promote.Orchestrator
	store     *memStore

	incidentsMu sync.Mutex
	incidents   []*incident.Incident

	telemetryMu sync.Mutex
	telemetry   map[string]health.Report
	roles       map[string]instance.Role

	thresholds health.Thresholds
}

func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()

	auditPath, _ := cmd.Flags().GetString("audit-path")
	if auditPath == "" {
		auditPath = config.GetEnv("FLEETCTL_AUDIT_PATH", "fleetctl-audit.json")
	}
	rulesPath, _ := cmd.Flags().GetString("safety-rules")
	if rulesPath == "" {
		rulesPath = config.GetEnv("FLEETCTL_SAFETY_RULES", "")
	}
	pairsPath, _ := cmd.Flags().GetString("pairs-file")
	if pairsPath == "" {
		pairsPath = config.GetEnv("FLEETCTL_PAIRS_FILE", "fleetctl-pairs.yaml")
	}

	log := logging.NewFromEnv("fleetctl")
	m := metrics.New()

	rules := safety.DefaultRules()
	if rulesPath != "" {
		loaded, err := safety.LoadRules(rulesPath)
		if err != nil {
			return nil, fmt.Errorf("load safety rules: %w", err)
		}
		rules = loaded
	}

	chain := audit.New(ctx, audit.NewFilePersistence(auditPath), log, m)

	a := &app{
		log:        log,
		metrics:    m,
		pairsPath:  pairsPath,
		pairs:      instance.NewRegistry(),
		fsms:       failover.NewRegistry(),
		chain:      chain,
		rules:      rules,
		providers:  providers.NewRegistry(),
		telemetry:  make(map[string]health.Report),
		roles:      make(map[string]instance.Role),
		thresholds: health.DefaultThresholds(),
	}

	a.store = newMemStore()
	a.store.providers = a.providers
	a.store.chain = chain
	a.store.log = log
	a.orch = promote.New(a.pairs, a.fsms, a.store, a.store, a.store, chain, log)

	pairs, err := loadPairsFile(pairsPath)
	if err != nil {
		return nil, fmt.Errorf("load pairs file: %w", err)
	}
	for _, p := range pairs {
		a.pairs.Put(p)
		a.registerRole(p.PrimaryID, instance.RolePrimary)
		a.registerRole(p.StandbyID, instance.RoleStandby)
		a.store.setState(p.PrimaryID, instance.StateActive)
		a.store.setState(p.StandbyID, instance.StateActive)
	}

	return a, nil
}

// RecordTelemetry stores the latest report for an instance, satisfying
// httpapi.TelemetryRecorder. The next sweep tick picks it up.
func (a *app) RecordTelemetry(instanceID string, report health.Report) {
	a.telemetryMu.Lock()
	defer a.telemetryMu.Unlock()
	a.telemetry[instanceID] = report
}

// registerRole records an instance's pair role so sweep ticks know
// whether a machine that exhausts its heal attempts may initiate failover.
func (a *app) registerRole(instanceID string, role instance.Role) {
	a.telemetryMu.Lock()
	defer a.telemetryMu.Unlock()
	a.roles[instanceID] = role
}

// telemetrySnapshot returns a copy of the latest report and role map for
// one sweep tick to consume without holding the lock during scoring.
func (a *app) telemetrySnapshot() (map[string]health.Report, map[string]instance.Role) {
	a.telemetryMu.Lock()
	defer a.telemetryMu.Unlock()
	reports := make(map[string]health.Report, len(a.telemetry))
	for k, v := range a.telemetry {
		reports[k] = v
	}
	roles := make(map[string]instance.Role, len(a.roles))
	for k, v := range a.roles {
		roles[k] = v
	}
	return reports, roles
}

// sweepOnce runs one health-sweep tick: score every tracked instance,
// advance its failover machine, and promote a standby when a machine
// reaches FailingOver.
func (a *app) sweepOnce(ctx context.Context, reports map[string]health.Report, roles map[string]instance.Role, thresholds health.Thresholds) {
	for id, report := range reports {
		role := roles[id]
		score, alerts := health.Score(report, thresholds)
		a.metrics.HealthScoreGauge.WithLabelValues(id).Set(float64(score))
		for _, alert := range alerts {
			a.log.WithContext(ctx).WithField("instance_id", id).WithField("alert", alert.Name).Warn("health alert")
		}

		standbyActive := a.partnerIsActive(id)
		transition := a.fsms.Tick(id, role, score, standbyActive, thresholds.CriticalScore)
		a.metrics.FSMTransitionsTotal.WithLabelValues(string(transition.Event)).Inc()
		if transition.From != transition.To {
			a.log.LogTransition(ctx, id, string(transition.From.Kind), string(transition.To.Kind), string(transition.Event))
		}
		a.recordHealAudit(ctx, id, transition)

		if transition.To.Kind == failover.KindFailingOver && role == instance.RolePrimary {
			a.runFailover(ctx, id)
		}
		if transition.Event == failover.EventEscalateToCommander {
			accountID := ""
			for _, pair := range a.pairs.All() {
				if pair.PrimaryID == id || pair.StandbyID == id {
					accountID = pair.AccountID
					break
				}
			}
			a.openIncident(ctx, id, accountID, transition.To.Reason)
		}
	}
}

// partnerIsActive reports whether id's pair partner is in the Active
// lifecycle state, consulted before a Primary's machine is allowed to
// initiate failover.
func (a *app) partnerIsActive(id string) bool {
	for _, pair := range a.pairs.All() {
		partner, err := pair.Other(id)
		if err != nil {
			continue
		}
		if state, _ := a.store.StandbyState(context.Background(), partner); state == instance.StateActive {
			return true
		}
		return false
	}
	return false
}

func (a *app) runFailover(ctx context.Context, formerPrimaryID string) {
	for _, pair := range a.pairs.All() {
		if pair.PrimaryID != formerPrimaryID {
			continue
		}
		a.appendAudit(ctx, audit.ActionTriggerFailover, "pair", pair.AccountID,
			map[string]any{"former_primary": formerPrimaryID}, "initiated")

		summary, err := a.orch.Promote(ctx, pair.AccountID, formerPrimaryID)
		outcome := "success"
		if err != nil {
			outcome = "failed"
			a.log.WithContext(ctx).WithField("error", err).WithField("account_id", pair.AccountID).Warn("failover promotion failed")
			a.openIncident(ctx, formerPrimaryID, pair.AccountID, "failover promotion failed: "+err.Error())
		}
		a.metrics.FailoversTotal.WithLabelValues(outcome).Inc()
		return
	}
}

// appendAudit records one action to the durable chain, logging (but not
// failing the caller on) a persistence error.
func (a *app) appendAudit(ctx context.Context, action audit.ActionKind, targetType, targetID string, params map[string]any, result string) {
	_, err := a.chain.Append(ctx, audit.AppendInput{
		Actor:      "fleetctl-sweep",
		Action:     string(action),
		TargetType: targetType,
		TargetID:   targetID,
		Parameters: params,
		Result:     result,
	})
	if err != nil {
		a.log.WithContext(ctx).WithField("error", err).Warn("audit append failed")
	}
}

// recordHealAudit appends the InitiateAutoHeal/RestartGateway trail for
// a sweep-driven FSM transition, matching the order the failover flow
// actually performs them in: entering Healing opens the auto-heal
// attempt sequence, then each subsequent restart attempt gets its own
// record.
func (a *app) recordHealAudit(ctx context.Context, instanceID string, t failover.Transition) {
	switch {
	case t.From.Kind == failover.KindNormal && t.To.Kind == failover.KindHealing:
		a.appendAudit(ctx, audit.ActionInitiateAutoHeal, "instance", instanceID, nil, "initiated")
		a.appendAudit(ctx, audit.ActionRestartGateway, "instance", instanceID, map[string]any{"attempt": t.To.Attempt}, "attempted")
	case t.From.Kind == failover.KindHealing && t.To.Kind == failover.KindHealing:
		a.appendAudit(ctx, audit.ActionRestartGateway, "instance", instanceID, map[string]any{"attempt": t.To.Attempt}, "attempted")
	}
}

// openIncident records a new Incident in the in-memory ledger from a
// triggering health event, so the operator API's /api/incidents
// endpoint reflects sweeps that actually escalated.
func (a *app) openIncident(ctx context.Context, instanceID, accountID, reason string) {
	ev := incident.HealthEvent{
		InstanceID:    instanceID,
		AffectedUsers: 1,
		DataLossRisk:  false,
		FailingChecks: []string{reason},
	}
	inc := incident.New(uuid.NewString(), ev, time.Now())
	inc.DetermineRootCause(ev.FailingChecks)
	if accountID != "" {
		inc.AddTimelineEntry(time.Now(), "fleetctl-sweep", "account_linked", accountID)
	}

	a.incidentsMu.Lock()
	a.incidents = append(a.incidents, inc)
	a.incidentsMu.Unlock()

	a.log.WithContext(ctx).WithField("incident_id", inc.ID).WithField("instance_id", instanceID).
		WithField("severity", string(inc.Severity)).Warn("incident opened")
}
