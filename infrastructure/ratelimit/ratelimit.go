// Package ratelimit implements keyed token-bucket limiters that guard
// against telemetry backpressure: telemetry ingest defaults to 60/min per
// source. Provider API calls are not passed through a limiter. Built on
// golang.org/x/time/rate.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	cperrors "github.com/clawops/fleetctl/infrastructure/errors"
)

// Limiter keys independent token-bucket limiters by an arbitrary string
// (a telemetry source id, or a provider name).
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	perSec   rate.Limit
	burst    int
	window   time.Duration
	limitLog int
}

// New creates a Limiter allowing `limit` events per `window` per key, with
// `burst` events permitted instantaneously.
func New(limit int, window time.Duration, burst int) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if burst <= 0 {
		burst = limit
	}
	perSec := rate.Limit(float64(limit) / window.Seconds())
	return &Limiter{
		buckets:  make(map[string]*rate.Limiter),
		perSec:   perSec,
		burst:    burst,
		window:   window,
		limitLog: limit,
	}
}

// DefaultTelemetryLimiter returns the 60/min-per-source default applied
// to the telemetry ingest endpoint.
func DefaultTelemetryLimiter() *Limiter {
	return New(60, time.Minute, 10)
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.perSec, l.burst)
		l.buckets[key] = b
	}
	return b
}

// Allow reports whether an event for key is permitted right now, and
// returns a RateLimitExceeded error otherwise so callers can propagate a
// typed error up through the HTTP layer.
func (l *Limiter) Allow(key string) error {
	if !l.bucket(key).Allow() {
		return cperrors.RateLimitExceeded(l.limitLog, l.window.String())
	}
	return nil
}

// Reset discards all per-key buckets, e.g. after a configuration reload.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[string]*rate.Limiter)
}

// KeyCount returns the number of distinct keys currently tracked.
func (l *Limiter) KeyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
