package agent

import (
	"fmt"
	"strings"

	"github.com/clawops/fleetctl/domain/instance"
)

// BootstrapSpec carries everything the on-host bootstrap script needs to
// embed.
type BootstrapSpec struct {
	InstanceID      string
	AccountID       string
	GatewayURL      string
	BootstrapToken  string
	Role            instance.Role
	PairInstanceID  string
	Tier            instance.Tier
	Provider        instance.Provider
	Region          string
}

// RenderBootstrapScript produces the shell script that installs the
// container runtime, establishes the VPN, writes the agent config file,
// registers the agent as a supervised service, and starts it.
func RenderBootstrapScript(spec BootstrapSpec) string {
	var b strings.Builder
	b.WriteString("#!/usr/bin/env bash\nset -euo pipefail\n\n")
	fmt.Fprintf(&b, "INSTANCE_ID=%q\n", spec.InstanceID)
	fmt.Fprintf(&b, "ACCOUNT_ID=%q\n", spec.AccountID)
	fmt.Fprintf(&b, "GATEWAY_URL=%q\n", spec.GatewayURL)
	fmt.Fprintf(&b, "BOOTSTRAP_TOKEN=%q\n", spec.BootstrapToken)
	fmt.Fprintf(&b, "ROLE=%q\n", spec.Role)
	fmt.Fprintf(&b, "PAIR_INSTANCE_ID=%q\n", spec.PairInstanceID)
	fmt.Fprintf(&b, "TIER=%q\n", spec.Tier)
	fmt.Fprintf(&b, "PROVIDER=%q\n", spec.Provider)
	fmt.Fprintf(&b, "REGION=%q\n\n", spec.Region)

	b.WriteString("# install container runtime\n")
	b.WriteString("curl -fsSL https://get.docker.com | sh\n\n")

	b.WriteString("# establish VPN mesh\n")
	b.WriteString("curl -fsSL https://tailscale.com/install.sh | sh\n")
	b.WriteString("tailscale up --authkey=\"${BOOTSTRAP_TOKEN}\" --hostname=\"${INSTANCE_ID}\"\n\n")

	b.WriteString("# write agent config\n")
	b.WriteString("mkdir -p /etc/openclaw-agent\n")
	b.WriteString("cat > /etc/openclaw-agent/config.yaml <<EOF\n")
	b.WriteString("instance_id: \"${INSTANCE_ID}\"\n")
	b.WriteString("account_id: \"${ACCOUNT_ID}\"\n")
	b.WriteString("gateway_url: \"${GATEWAY_URL}\"\n")
	b.WriteString("role: \"${ROLE}\"\n")
	b.WriteString("pair_instance_id: \"${PAIR_INSTANCE_ID}\"\n")
	b.WriteString("tier: \"${TIER}\"\n")
	b.WriteString("provider: \"${PROVIDER}\"\n")
	b.WriteString("region: \"${REGION}\"\n")
	b.WriteString("EOF\n\n")

	b.WriteString("# register and start the supervised agent service\n")
	b.WriteString("cat > /etc/systemd/system/openclaw-agent.service <<EOF\n")
	b.WriteString("[Unit]\nDescription=openclaw fleet agent\nAfter=network.target docker.service\n\n")
	b.WriteString("[Service]\nExecStart=/usr/local/bin/openclaw-agent --config /etc/openclaw-agent/config.yaml\nRestart=always\n\n")
	b.WriteString("[Install]\nWantedBy=multi-user.target\nEOF\n\n")
	b.WriteString("systemctl daemon-reload\n")
	b.WriteString("systemctl enable --now openclaw-agent\n")

	return b.String()
}
