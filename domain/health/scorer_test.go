package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawops/fleetctl/domain/instance"
)

func healthyReport() Report {
	return Report{GatewayUp: true, DockerUp: true, VPNUp: true}
}

func TestScore_Healthy(t *testing.T) {
	score, alerts := Score(healthyReport(), DefaultThresholds())
	require.Equal(t, 100, score)
	assert.Empty(t, alerts)
}

func TestScore_GatewayDown(t *testing.T) {
	r := healthyReport()
	r.GatewayUp = false
	score, alerts := Score(r, DefaultThresholds())
	require.Equal(t, 60, score)
	require.Len(t, alerts, 1)
	assert.Equal(t, "gateway_down", alerts[0].Name)
}

func TestScore_AllPenaltiesStack(t *testing.T) {
	r := Report{GatewayUp: false, DockerUp: false, VPNUp: false, CPU1m: 95, Mem: 90, Disk: 90}
	score, alerts := Score(r, DefaultThresholds())
	// 100 - 40 - 20 - 15 - 10 - 10 - 10 = -5, clamped to 0
	assert.Equal(t, 0, score)
	assert.Len(t, alerts, 6)
}

func TestScore_ClampsUpperBound(t *testing.T) {
	score, _ := Score(healthyReport(), DefaultThresholds())
	assert.LessOrEqual(t, score, 100)
}

func TestScore_CommutesRegardlessOfOrder(t *testing.T) {
	r1 := Report{GatewayUp: false, CPU1m: 95, DockerUp: true, VPNUp: true}
	r2 := Report{CPU1m: 95, GatewayUp: false, DockerUp: true, VPNUp: true}
	s1, _ := Score(r1, DefaultThresholds())
	s2, _ := Score(r2, DefaultThresholds())
	assert.Equal(t, s1, s2)
}

func TestRecommendAction_Boundaries(t *testing.T) {
	thr := DefaultThresholds()
	tests := []struct {
		score int
		want  RecommendedAction
	}{
		{100, ActionNone},
		{70, ActionNone},
		{69, ActionMonitor},
		{40, ActionMonitor},
		{39, ActionAutoHeal},
		{20, ActionAutoHeal},
		{19, ActionEscalateToCommander},
		{0, ActionEscalateToCommander},
	}
	for _, tc := range tests {
		got := RecommendAction(tc.score, thr)
		assert.Equalf(t, tc.want, got, "score=%d", tc.score)
	}
}

func TestAllowsFailover(t *testing.T) {
	assert.True(t, AllowsFailover(instance.RolePrimary))
	assert.False(t, AllowsFailover(instance.RoleStandby))
}
