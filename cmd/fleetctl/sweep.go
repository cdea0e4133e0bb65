package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clawops/fleetctl/domain/health"
)

// sweepCmd runs one health-sweep tick outside the long-running serve
// process, reading telemetry reports from a JSON file a cron job or
// external probe wrote (keyed by instance id). Useful for a
// cron-triggered sweep where running the full HTTP server is overkill.
func sweepCmd() *cobra.Command {
	var telemetryPath string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one health-sweep tick against a telemetry snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if telemetryPath == "" {
				return fmt.Errorf("sweep: --telemetry-file is required")
			}

			data, err := os.ReadFile(telemetryPath)
			if err != nil {
				return fmt.Errorf("read telemetry file: %w", err)
			}
			var reports map[string]health.Report
			if err := json.Unmarshal(data, &reports); err != nil {
				return fmt.Errorf("parse telemetry file: %w", err)
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			for id, report := range reports {
				a.RecordTelemetry(id, report)
			}
			_, roles := a.telemetrySnapshot()
			a.sweepOnce(cmd.Context(), reports, roles, a.thresholds)

			fmt.Printf("swept %d instance(s)\n", len(reports))
			return nil
		},
	}

	cmd.Flags().StringVar(&telemetryPath, "telemetry-file", "", "path to a JSON map of instance id to health.Report")
	return cmd
}
