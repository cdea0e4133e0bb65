package agent

import (
	"fmt"
	"strings"
)

// forbiddenShellChars are rejected anywhere in a shell command.
const forbiddenShellChars = ";|`$&><(){}"

// AllowedProcessNames is the fixed allowlist of binaries on-host commands
// may invoke: system tools for observing state, the gateway binary, the
// container runtime, and the VPN CLI.
var AllowedProcessNames = []string{
	"ps", "top", "df", "free", "uptime", "netstat", "ss", "uname", "who",
	"openclaw-gateway",
	"docker",
	"tailscale",
}

// SanitizeShellCommand rejects any command containing a forbidden
// character, a control character, or that doesn't begin with an allowed
// process name.
func SanitizeShellCommand(cmd string) error {
	if cmd == "" {
		return fmt.Errorf("agent: empty command")
	}
	for _, r := range cmd {
		if strings.ContainsRune(forbiddenShellChars, r) {
			return fmt.Errorf("agent: command contains forbidden character %q", r)
		}
		if r == '\n' || r == '\r' || r == 0 {
			return fmt.Errorf("agent: command contains control character")
		}
	}

	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return fmt.Errorf("agent: empty command")
	}
	proc := fields[0]
	for _, allowed := range AllowedProcessNames {
		if proc == allowed {
			return nil
		}
	}
	return fmt.Errorf("agent: process %q is not in the allowed command list", proc)
}

// ValidateHostname checks a hostname is non-empty, <=253 characters,
// dot-separated labels of ASCII alphanumerics and hyphens, no
// leading/trailing hyphen per label, no empty labels.
func ValidateHostname(host string) error {
	if host == "" {
		return fmt.Errorf("agent: hostname must not be empty")
	}
	if len(host) > 253 {
		return fmt.Errorf("agent: hostname exceeds 253 characters")
	}
	labels := strings.Split(host, ".")
	for _, label := range labels {
		if label == "" {
			return fmt.Errorf("agent: hostname has an empty label")
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return fmt.Errorf("agent: label %q has a leading or trailing hyphen", label)
		}
		for _, r := range label {
			if !isAlnum(r) && r != '-' {
				return fmt.Errorf("agent: label %q contains an invalid character %q", label, r)
			}
		}
	}
	return nil
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
