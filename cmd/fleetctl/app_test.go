package main

import (
	"context"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawops/fleetctl/domain/audit"
	"github.com/clawops/fleetctl/domain/failover"
	"github.com/clawops/fleetctl/domain/health"
	"github.com/clawops/fleetctl/domain/instance"
	"github.com/clawops/fleetctl/domain/promote"
	"github.com/clawops/fleetctl/domain/safety"
	"github.com/clawops/fleetctl/infrastructure/logging"
	"github.com/clawops/fleetctl/infrastructure/metrics"
	"github.com/clawops/fleetctl/providers"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	log := logging.New("test", "error", "json")
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	a := &app{
		log:        log,
		metrics:    m,
		pairs:      instance.NewRegistry(),
		fsms:       failover.NewRegistry(),
		chain:      audit.New(context.Background(), nil, log, m),
		rules:      safety.DefaultRules(),
		providers:  providers.NewRegistry(),
		telemetry:  make(map[string]health.Report),
		roles:      make(map[string]instance.Role),
		thresholds: health.DefaultThresholds(),
	}
	a.store = newMemStore()
	a.orch = promote.New(a.pairs, a.fsms, a.store, a.store, a.store, a.chain, log)
	return a
}

func TestPartnerIsActiveNoPair(t *testing.T) {
	a := newTestApp(t)
	assert.False(t, a.partnerIsActive("i-1"))
}

func TestPartnerIsActiveTrue(t *testing.T) {
	a := newTestApp(t)
	a.pairs.Put(instance.Pair{AccountID: "acct-1", PrimaryID: "i-1", StandbyID: "i-2"})
	a.store.setState("i-2", instance.StateActive)
	assert.True(t, a.partnerIsActive("i-1"))
}

func TestPartnerIsActiveFalseWhenStandbyNotActive(t *testing.T) {
	a := newTestApp(t)
	a.pairs.Put(instance.Pair{AccountID: "acct-1", PrimaryID: "i-1", StandbyID: "i-2"})
	assert.False(t, a.partnerIsActive("i-1"))
}

// downReport fails every boolean check, scoring well under the default
// critical threshold of 40 in one tick.
var downReport = health.Report{}

func TestSweepOnceDrivesFailoverAndRecordsAudit(t *testing.T) {
	a := newTestApp(t)
	a.pairs.Put(instance.Pair{AccountID: "acct-1", PrimaryID: "i-1", StandbyID: "i-2"})
	a.registerRole("i-1", instance.RolePrimary)
	a.registerRole("i-2", instance.RoleStandby)
	a.store.setState("i-1", instance.StateActive)
	a.store.setState("i-2", instance.StateActive)

	reports := map[string]health.Report{"i-1": downReport}
	_, roles := a.telemetrySnapshot()
	ctx := context.Background()

	// Normal -> Healing(1) -> Healing(2) -> Healing(3) -> FailingOver,
	// runFailover fires on the tick that reaches FailingOver.
	for i := 0; i < failover.MaxHealAttempts+1; i++ {
		a.sweepOnce(ctx, reports, roles, a.thresholds)
	}

	state, ok := a.fsms.Get("i-1")
	require.True(t, ok)
	assert.Equal(t, failover.KindNormal, state.Kind, "former primary returns to Normal once the standby is promoted")

	pair, ok := a.pairs.Get("acct-1")
	require.True(t, ok)
	assert.Equal(t, "i-2", pair.PrimaryID, "standby should now be primary after promotion")

	records := a.chain.Query(audit.QueryFilter{})
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })
	actions := make([]string, len(records))
	for i, r := range records {
		actions[i] = r.Action
	}
	assert.Equal(t, []string{
		string(audit.ActionInitiateAutoHeal),
		string(audit.ActionRestartGateway),
		string(audit.ActionRestartGateway),
		string(audit.ActionRestartGateway),
		string(audit.ActionTriggerFailover),
		string(audit.ActionPromoteStandby),
		string(audit.ActionScheduleReprovision),
	}, actions, "audit chain records the full auto-heal-through-promotion trail in order")
}

func TestSweepOnceNoActionWhenHealthy(t *testing.T) {
	a := newTestApp(t)
	a.pairs.Put(instance.Pair{AccountID: "acct-1", PrimaryID: "i-1", StandbyID: "i-2"})
	a.registerRole("i-1", instance.RolePrimary)

	healthy := health.Report{GatewayUp: true, DockerUp: true, VPNUp: true}
	reports := map[string]health.Report{"i-1": healthy}
	_, roles := a.telemetrySnapshot()

	a.sweepOnce(context.Background(), reports, roles, a.thresholds)

	state, ok := a.fsms.Get("i-1")
	require.True(t, ok)
	assert.Equal(t, failover.KindNormal, state.Kind)
}

func TestRecordTelemetryAndSnapshot(t *testing.T) {
	a := newTestApp(t)
	report := health.Report{GatewayUp: true}
	a.RecordTelemetry("i-1", report)

	reports, _ := a.telemetrySnapshot()
	require.Contains(t, reports, "i-1")
	assert.True(t, reports["i-1"].GatewayUp)
}
