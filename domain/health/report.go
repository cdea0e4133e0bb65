// Package health implements the pure health-scoring function:
// HealthReport x HealthThresholds -> (score, alerts, recommended action).
package health

import "time"

// Report is an ephemeral telemetry snapshot fed into the scorer.
type Report struct {
	InstanceID string
	Timestamp  time.Time

	GatewayUp bool
	DockerUp  bool
	VPNUp     bool

	CPU1m     float64 // percent
	Mem       float64 // percent
	Disk      float64 // percent
	Swap      float64 // percent
	LoadAvg1  float64
	LoadAvg5  float64
	LoadAvg15 float64
	UptimeSec int64

	NetRxBytesPerSec float64
	NetTxBytesPerSec float64
}

// Thresholds is immutable-per-run configuration for the scorer.
type Thresholds struct {
	DegradedScore  int // default 70
	CriticalScore  int // default 40
	CPUAlertPct    float64
	MemAlertPct    float64
	DiskAlertPct   float64
	SwapAlertPct   float64
	HeartbeatTimeout time.Duration
}

// DefaultThresholds returns the fleet's baseline scoring thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DegradedScore:    70,
		CriticalScore:    40,
		CPUAlertPct:      90,
		MemAlertPct:      85,
		DiskAlertPct:     85,
		SwapAlertPct:     50,
		HeartbeatTimeout: 90 * time.Second,
	}
}
