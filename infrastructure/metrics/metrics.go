// Package metrics provides the Prometheus collectors the control plane
// exposes: audit chain growth, FSM transitions, rollout batch outcomes,
// and fleet health distribution.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every collector the control plane registers.
type Metrics struct {
	AuditAppendsTotal   *prometheus.CounterVec
	AuditChainLength    prometheus.Gauge
	SafetyDecisions     *prometheus.CounterVec
	FSMTransitionsTotal *prometheus.CounterVec
	FailoversTotal      *prometheus.CounterVec
	RolloutBatchesTotal *prometheus.CounterVec
	RolloutRollbacks    prometheus.Counter
	IncidentsBySeverity *prometheus.GaugeVec
	HealthScoreGauge    *prometheus.GaugeVec
}

// New creates a Metrics instance registered against the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics instance registered against registerer,
// useful for tests that want an isolated registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuditAppendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetctl_audit_appends_total",
			Help: "Total audit chain append operations, by action kind.",
		}, []string{"action"}),
		AuditChainLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetctl_audit_chain_length",
			Help: "Current number of records in the audit chain.",
		}),
		SafetyDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetctl_safety_decisions_total",
			Help: "Safety gate decisions, by outcome.",
		}, []string{"outcome"}),
		FSMTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetctl_fsm_transitions_total",
			Help: "Failover FSM transitions, by event emitted.",
		}, []string{"event"}),
		FailoversTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetctl_failovers_total",
			Help: "Failover orchestrations, by outcome.",
		}, []string{"outcome"}),
		RolloutBatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetctl_rollout_batches_total",
			Help: "Rolling push batches processed, by outcome.",
		}, []string{"outcome"}),
		RolloutRollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetctl_rollout_rollbacks_total",
			Help: "Total rollback invocations during rolling pushes.",
		}),
		IncidentsBySeverity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleetctl_open_incidents",
			Help: "Currently open incidents, by severity.",
		}, []string{"severity"}),
		HealthScoreGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleetctl_instance_health_score",
			Help: "Last observed health score per instance.",
		}, []string{"instance_id"}),
	}

	collectors := []prometheus.Collector{
		m.AuditAppendsTotal, m.AuditChainLength, m.SafetyDecisions,
		m.FSMTransitionsTotal, m.FailoversTotal, m.RolloutBatchesTotal,
		m.RolloutRollbacks, m.IncidentsBySeverity, m.HealthScoreGauge,
	}
	for _, c := range collectors {
		_ = registerer.Register(c)
	}
	return m
}
