package health

import "github.com/clawops/fleetctl/domain/instance"

// Severity classifies an Alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert describes one penalty or threshold condition observed in a Report.
type Alert struct {
	Name      string
	Severity  Severity
	Message   string // human-readable
	Threshold *float64
	Actual    *float64
}

// RecommendedAction is the scorer's suggested next step.
type RecommendedAction string

const (
	ActionNone                RecommendedAction = "none"
	ActionMonitor             RecommendedAction = "monitor"
	ActionAutoHeal            RecommendedAction = "auto_heal"
	ActionFailover            RecommendedAction = "failover"
	ActionEscalateToCommander RecommendedAction = "escalate_to_commander"
)

func ptr(f float64) *float64 { return &f }

// Score computes the [0,100] health score and alert set for a report.
// Penalties are non-overlapping and additive; the order they're
// evaluated in doesn't affect the result since addition commutes.
func Score(r Report, t Thresholds) (score int, alerts []Alert) {
	score = 100

	if !r.GatewayUp {
		score -= 40
		alerts = append(alerts, Alert{
			Name: "gateway_down", Severity: SeverityCritical,
			Message: "gateway service is not healthy",
		})
	}
	if !r.DockerUp {
		score -= 20
		alerts = append(alerts, Alert{
			Name: "docker_down", Severity: SeverityCritical,
			Message: "container runtime is not running",
		})
	}
	if !r.VPNUp {
		score -= 15
		alerts = append(alerts, Alert{
			Name: "vpn_down", Severity: SeverityWarning,
			Message: "VPN tunnel is not connected",
		})
	}
	if r.CPU1m > 90 {
		score -= 10
		alerts = append(alerts, Alert{
			Name: "cpu_high", Severity: SeverityWarning,
			Message: "1-minute CPU usage above 90%", Threshold: ptr(90), Actual: ptr(r.CPU1m),
		})
	}
	if r.Mem > 85 {
		score -= 10
		alerts = append(alerts, Alert{
			Name: "mem_high", Severity: SeverityWarning,
			Message: "memory usage above 85%", Threshold: ptr(85), Actual: ptr(r.Mem),
		})
	}
	if r.Disk > 85 {
		score -= 10
		alerts = append(alerts, Alert{
			Name: "disk_high", Severity: SeverityWarning,
			Message: "disk usage above 85%", Threshold: ptr(85), Actual: ptr(r.Disk),
		})
	}

	// Threshold-derived alerts beyond the fixed penalties, one per
	// resource dimension with its own configured alert threshold.
	if t.CPUAlertPct > 0 && r.CPU1m > t.CPUAlertPct && r.CPU1m <= 90 {
		alerts = append(alerts, Alert{
			Name: "cpu_threshold", Severity: SeverityInfo,
			Message: "CPU usage above configured alert threshold",
			Threshold: ptr(t.CPUAlertPct), Actual: ptr(r.CPU1m),
		})
	}
	if t.MemAlertPct > 0 && r.Mem > t.MemAlertPct && r.Mem <= 85 {
		alerts = append(alerts, Alert{
			Name: "mem_threshold", Severity: SeverityInfo,
			Message: "memory usage above configured alert threshold",
			Threshold: ptr(t.MemAlertPct), Actual: ptr(r.Mem),
		})
	}
	if t.DiskAlertPct > 0 && r.Disk > t.DiskAlertPct && r.Disk <= 85 {
		alerts = append(alerts, Alert{
			Name: "disk_threshold", Severity: SeverityInfo,
			Message: "disk usage above configured alert threshold",
			Threshold: ptr(t.DiskAlertPct), Actual: ptr(r.Disk),
		})
	}
	if t.SwapAlertPct > 0 && r.Swap > t.SwapAlertPct {
		alerts = append(alerts, Alert{
			Name: "swap_high", Severity: SeverityWarning,
			Message: "swap usage above configured alert threshold",
			Threshold: ptr(t.SwapAlertPct), Actual: ptr(r.Swap),
		})
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, alerts
}

// RecommendAction maps a score to a recommended action per the band table
// below DegradedScore.
func RecommendAction(score int, t Thresholds) RecommendedAction {
	switch {
	case score >= t.DegradedScore:
		return ActionNone
	case score >= t.CriticalScore:
		return ActionMonitor
	case score >= 20:
		return ActionAutoHeal
	default:
		return ActionEscalateToCommander
	}
}

// AllowsFailover reports whether role is eligible to receive a Failover
// recommendation. Standby instances never receive Failover; they escalate
// instead, matching the FSM invariant that a Standby's machine never
// emits InitiateFailover.
func AllowsFailover(role instance.Role) bool {
	return role == instance.RolePrimary
}
