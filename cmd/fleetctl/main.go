// Command fleetctl is the fleet control plane's single entry point: the
// long-running server, the periodic sweep, and operator subcommands for
// inspecting and driving the audit chain and rolling config pushes all
// live behind one binary so there is exactly one process that owns
// mutating transactions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fleetctl",
		Short:         "Fleet control plane: paired-VM health, failover, and config push",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("audit-path", "", "path to the audit chain persistence file (env FLEETCTL_AUDIT_PATH)")
	root.PersistentFlags().String("safety-rules", "", "path to a YAML safety rules overlay (env FLEETCTL_SAFETY_RULES)")
	root.PersistentFlags().String("pairs-file", "", "path to the declarative pair bindings YAML file (env FLEETCTL_PAIRS_FILE)")
	root.AddCommand(serveCmd(), sweepCmd(), auditCmd(), rolloutCmd(), pairCmd())
	return root
}
