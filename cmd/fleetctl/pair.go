package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clawops/fleetctl/domain/audit"
	"github.com/clawops/fleetctl/domain/instance"
	"github.com/clawops/fleetctl/domain/safety"
)

func pairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Manage primary/standby pair bindings",
	}
	cmd.AddCommand(pairRegisterCmd())
	return cmd
}

func pairRegisterCmd() *cobra.Command {
	var accountID, primaryID, standbyID string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Bind a primary and standby instance as a pair and mark both active",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accountID == "" || primaryID == "" || standbyID == "" {
				return fmt.Errorf("pair register: --account, --primary and --standby are all required")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			decision := safety.Evaluate(safety.Action{Kind: safety.ActionProvision}, a.rules)
			if decision.Outcome == safety.OutcomeBlocked {
				_, _ = a.chain.Append(ctx, audit.AppendInput{
					Actor:      "fleetctl-operator",
					Action:     string(audit.ActionProvisionPrimary),
					TargetType: "pair",
					TargetID:   accountID,
					Parameters: map[string]any{"primary": primaryID, "standby": standbyID},
					Result:     string(decision.Outcome),
				})
				return fmt.Errorf("pair register: safety gate blocked provisioning: %s", decision.Reason)
			}

			pair := instance.Pair{AccountID: accountID, PrimaryID: primaryID, StandbyID: standbyID}
			existing, err := loadPairsFile(a.pairsPath)
			if err != nil {
				return fmt.Errorf("load pairs file: %w", err)
			}
			if err := savePairsFile(a.pairsPath, upsertPair(existing, pair)); err != nil {
				return fmt.Errorf("write pairs file: %w", err)
			}

			_, err = a.chain.Append(ctx, audit.AppendInput{
				Actor:      "fleetctl-operator",
				Action:     string(audit.ActionProvisionPrimary),
				TargetType: "pair",
				TargetID:   accountID,
				Parameters: map[string]any{"primary": primaryID, "standby": standbyID},
				Result:     "registered",
			})
			if err != nil {
				return fmt.Errorf("record pair registration: %w", err)
			}

			fmt.Printf("registered pair %s: primary=%s standby=%s (%s)\n", accountID, primaryID, standbyID, a.pairsPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "account id owning the pair")
	cmd.Flags().StringVar(&primaryID, "primary", "", "primary instance id")
	cmd.Flags().StringVar(&standbyID, "standby", "", "standby instance id")
	return cmd
}
