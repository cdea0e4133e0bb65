// Package service provides the cooperative worker-pool runtime the
// control plane's long-running process is built on: background ticker
// workers for the health sweep and cron-scheduled workers
// (AddCronWorker).
package service

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/clawops/fleetctl/infrastructure/logging"
)

// Service wires up worker registration with a shared stop signal and
// idempotent shutdown, adapted from the ticker-worker pattern so each
// long-running task (sweep tick, rollout scheduler) is a plain function
// of (context) without owning its own lifecycle plumbing.
type Service struct {
	name   string
	logger *logging.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	workers []func(context.Context)
	cron    *cron.Cron

	startTime time.Time
}

// New builds a named Service.
func New(name string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewFromEnv(name)
	}
	return &Service{name: name, logger: logger, stopCh: make(chan struct{}), cron: cron.New()}
}

// AddWorker registers a background worker that runs until Stop is
// called or ctx is cancelled.
func (s *Service) AddWorker(fn func(context.Context)) *Service {
	s.workers = append(s.workers, fn)
	return s
}

// TickerWorkerOption configures AddTickerWorker.
type TickerWorkerOption func(*tickerWorkerConfig)

type tickerWorkerConfig struct {
	name           string
	runImmediately bool
}

// WithTickerWorkerName labels the worker in error logs.
func WithTickerWorkerName(name string) TickerWorkerOption {
	return func(cfg *tickerWorkerConfig) { cfg.name = name }
}

// WithTickerWorkerImmediate runs the worker once immediately, before the
// first interval elapses.
func WithTickerWorkerImmediate() TickerWorkerOption {
	return func(cfg *tickerWorkerConfig) { cfg.runImmediately = true }
}

// AddTickerWorker registers a periodic worker run every interval -- the
// driver for the periodic health-sweep tick.
func (s *Service) AddTickerWorker(interval time.Duration, fn func(context.Context) error, opts ...TickerWorkerOption) *Service {
	cfg := tickerWorkerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	worker := func(ctx context.Context) {
		logErr := func(err error) {
			if err == nil {
				return
			}
			entry := s.logger.WithContext(ctx)
			if cfg.name != "" {
				entry = entry.WithField("worker", cfg.name)
			}
			entry.WithField("error", err).Warn("worker error")
		}

		if cfg.runImmediately {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			default:
				logErr(fn(ctx))
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				logErr(fn(ctx))
			}
		}
	}
	s.workers = append(s.workers, worker)
	return s
}

// AddCronWorker schedules fn on a standard 5-field cron spec or an
// @-descriptor. The serve command does not use it; its sweep runs on a
// ticker worker, and no rollout is scheduled through it.
func (s *Service) AddCronWorker(spec string, fn func(context.Context) error) error {
	ctx := context.Background()
	_, err := s.cron.AddFunc(spec, func() {
		if err := fn(ctx); err != nil {
			s.logger.WithContext(ctx).WithField("error", err).Warn("cron worker error")
		}
	})
	return err
}

// StopChan exposes the shared stop signal for workers that select on it
// directly.
func (s *Service) StopChan() <-chan struct{} {
	return s.stopCh
}

// Start launches every registered worker and the cron scheduler.
func (s *Service) Start(ctx context.Context) {
	s.startTime = time.Now()
	s.cron.Start()
	for _, w := range s.workers {
		worker := w
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			worker(ctx)
		}()
	}
}

// Stop signals every worker to exit and waits for them to finish. Safe
// to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	cronCtx := s.cron.Stop()
	<-cronCtx.Done()
	s.wg.Wait()
}

// Uptime reports how long the service has been running since Start.
func (s *Service) Uptime() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}
