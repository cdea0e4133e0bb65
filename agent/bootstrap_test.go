package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clawops/fleetctl/domain/instance"
)

func TestRenderBootstrapScript_EmbedsIdentity(t *testing.T) {
	script := RenderBootstrapScript(BootstrapSpec{
		InstanceID: "i-1", AccountID: "acct-1", GatewayURL: "https://gw.example.com",
		BootstrapToken: "tok-abc", Role: instance.RolePrimary, PairInstanceID: "i-2",
		Tier: instance.TierStandard, Provider: instance.ProviderAWS, Region: "us-east-1",
	})
	assert.Contains(t, script, `INSTANCE_ID="i-1"`)
	assert.Contains(t, script, `ACCOUNT_ID="acct-1"`)
	assert.Contains(t, script, `ROLE="primary"`)
	assert.Contains(t, script, "tailscale up")
	assert.Contains(t, script, "systemctl enable --now openclaw-agent")
}
