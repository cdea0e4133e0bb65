package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clawops/fleetctl/agent"
	"github.com/clawops/fleetctl/domain/audit"
	"github.com/clawops/fleetctl/domain/rollout"
	"github.com/clawops/fleetctl/domain/safety"
	"github.com/clawops/fleetctl/infrastructure/config"
)

// agentPusher implements rollout.Pusher over the agent RPC client,
// dialing one connection per instance for the duration of the push.
type agentPusher struct {
	urlTemplate string
	secret      []byte
}

func (p *agentPusher) dial(ctx context.Context, instanceID string) (*agent.Client, error) {
	url := fmt.Sprintf(p.urlTemplate, instanceID)
	return agent.Dial(ctx, url, p.secret)
}

func (p *agentPusher) Push(ctx context.Context, instanceID string, payload any) error {
	client, err := p.dial(ctx, instanceID)
	if err != nil {
		return err
	}
	defer client.Close()
	res, err := client.Call(ctx, "config.set", payload)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("agent rejected config.set: %s", res.Error)
	}
	return nil
}

func (p *agentPusher) ReadBack(ctx context.Context, instanceID string) (any, error) {
	client, err := p.dial(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	res, err := client.Call(ctx, "config.get", nil)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("agent rejected config.get: %s", res.Error)
	}
	var out any
	if err := json.Unmarshal(res.Data, &out); err != nil {
		return nil, fmt.Errorf("decode config.get response: %w", err)
	}
	return out, nil
}

func rolloutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollout",
		Short: "Push configuration to a fleet in validated batches",
	}
	cmd.AddCommand(rolloutRunCmd())
	return cmd
}

func rolloutRunCmd() *cobra.Command {
	var configName, payloadPath, instancesCSV, agentURLTemplate string
	var batchSize, maxConcurrency int
	var stopOnFailure bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Roll a config payload out to instances in sequential validated batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			if payloadPath == "" || instancesCSV == "" {
				return fmt.Errorf("rollout run: --payload and --instances are required")
			}

			raw, err := os.ReadFile(payloadPath)
			if err != nil {
				return fmt.Errorf("read payload file: %w", err)
			}
			var payload any
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("parse payload file: %w", err)
			}

			instances := splitCSV(instancesCSV)

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			secret := []byte(config.GetEnv("FLEETCTL_AGENT_SECRET", ""))
			if len(secret) == 0 {
				return fmt.Errorf("rollout run: FLEETCTL_AGENT_SECRET must be set")
			}
			pusher := &agentPusher{urlTemplate: agentURLTemplate, secret: secret}

			ctx := cmd.Context()

			decision := safety.Evaluate(safety.Action{
				Kind:                  safety.ActionConfigPush,
				AffectedInstanceCount: len(instances),
			}, a.rules)
			if decision.Outcome != safety.OutcomeApproved {
				_, _ = a.chain.Append(ctx, audit.AppendInput{
					Actor:      "fleetctl-rollout",
					Action:     string(audit.ActionPushConfig),
					TargetType: "config",
					TargetID:   configName,
					Parameters: map[string]any{"instances": instances, "batch_size": batchSize},
					Result:     string(decision.Outcome),
				})
				if decision.Outcome == safety.OutcomeBlocked {
					return fmt.Errorf("rollout run: safety gate blocked push: %s", decision.Reason)
				}
				return fmt.Errorf("rollout run: safety gate requires confirmation: %s", decision.Reason)
			}

			rollback := func(ctx context.Context, instanceID string) error {
				_, err := a.chain.Append(ctx, audit.AppendInput{
					Actor:      "fleetctl-rollout",
					Action:     string(audit.ActionRollbackConfig),
					TargetType: "instance",
					TargetID:   instanceID,
					Parameters: map[string]any{"config_name": configName},
					Result:     "rolled_back",
				})
				return err
			}

			result := rollout.Run(ctx, rollout.RollingPush{
				ConfigName:              configName,
				Payload:                 payload,
				Instances:               instances,
				BatchSize:               batchSize,
				MaxConcurrency:          maxConcurrency,
				StopOnValidationFailure: stopOnFailure,
			}, pusher, rollback)

			outcome := "success"
			if !result.Success {
				outcome = "failed"
			}
			_, _ = a.chain.Append(ctx, audit.AppendInput{
				Actor:      "fleetctl-rollout",
				Action:     string(audit.ActionPushConfig),
				TargetType: "config",
				TargetID:   configName,
				Parameters: map[string]any{"instances": instances, "batch_count": len(result.Batches)},
				Result:     outcome,
			})

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("rollout %s: %d batch(es) failed validation, %d instance(s) rolled back", configName, countFailedBatches(result), result.RollbackCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configName, "name", "", "config name recorded in the audit chain")
	cmd.Flags().StringVar(&payloadPath, "payload", "", "path to a JSON config payload")
	cmd.Flags().StringVar(&instancesCSV, "instances", "", "comma-separated instance ids, rollout order")
	cmd.Flags().StringVar(&agentURLTemplate, "agent-url-template", config.GetEnv("FLEETCTL_AGENT_URL_TEMPLATE", "wss://%s.agents.internal/control"), "fmt template for an instance's agent websocket URL, %s is the instance id")
	cmd.Flags().IntVar(&batchSize, "batch-size", 5, "instances pushed per batch")
	cmd.Flags().IntVar(&maxConcurrency, "max-concurrency", 0, "max concurrent pushes within a batch (0 = batch size)")
	cmd.Flags().BoolVar(&stopOnFailure, "stop-on-failure", true, "stop rolling forward after the first batch that fails validation")
	return cmd
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func countFailedBatches(r rollout.RollingPushResult) int {
	n := 0
	for _, b := range r.Batches {
		if !b.Valid {
			n++
		}
	}
	return n
}
