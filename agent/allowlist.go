package agent

import (
	"fmt"
	"strings"
)

// AllowedPrefixes is the per-agent command prefix allowlist; everything
// else is refused with a diagnostic.
var AllowedPrefixes = []string{
	"vps.", "openclaw.", "config.", "docker.", "ssh.",
	"firewall.", "tailscale.", "health.", "node.",
	"secret.", "auth.", "audit.",
}

// CheckAllowlist returns nil if command matches an allowed prefix, or a
// diagnostic error naming the rejected command otherwise.
func CheckAllowlist(command string) error {
	for _, p := range AllowedPrefixes {
		if strings.HasPrefix(command, p) {
			return nil
		}
	}
	return fmt.Errorf("agent: command %q does not match any allowed prefix", command)
}
