package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clawops/fleetctl/domain/incident"
	"github.com/clawops/fleetctl/infrastructure/config"
	"github.com/clawops/fleetctl/infrastructure/httpapi"
	"github.com/clawops/fleetctl/infrastructure/ratelimit"
	"github.com/clawops/fleetctl/infrastructure/service"
)

func serveCmd() *cobra.Command {
	var addr string
	var sweepInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the operator HTTP API and the periodic health sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			router := httpapi.NewRouter(httpapi.Deps{
				Chain:  a.chain,
				Logger: a.log,
				Incidents: func() []*incident.Incident {
					a.incidentsMu.Lock()
					defer a.incidentsMu.Unlock()
					return append([]*incident.Incident(nil), a.incidents...)
				},
				Telemetry: a,
				Limiter:   ratelimit.DefaultTelemetryLimiter(),
				Rules:     a.rules,
			})

			srv := &http.Server{Addr: addr, Handler: router}
			svc := service.New("fleetctl-serve", a.log)
			svc.AddTickerWorker(sweepInterval, func(ctx context.Context) error {
				reports, roles := a.telemetrySnapshot()
				a.sweepOnce(ctx, reports, roles, a.thresholds)
				return nil
			}, service.WithTickerWorkerName("health-sweep"))

			svc.Start(ctx)
			a.log.WithContext(ctx).WithField("addr", addr).Info("starting operator API")

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return err
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			svc.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.GetEnv("FLEETCTL_ADDR", ":8081"), "operator API listen address")
	cmd.Flags().DurationVar(&sweepInterval, "sweep-interval", config.GetEnvDuration("FLEETCTL_SWEEP_INTERVAL", 15*time.Second), "health sweep tick interval")
	return cmd
}
