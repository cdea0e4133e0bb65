// Package logging provides structured logging with trace ID and
// fleet-control-plane-specific helpers built on top of logrus.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContextKey is the type for context keys used to carry logging metadata.
type ContextKey string

const (
	TraceIDKey    ContextKey = "trace_id"
	InstanceIDKey ContextKey = "instance_id"
	AccountIDKey  ContextKey = "account_id"
)

// Logger wraps logrus.Logger with control-plane-specific helpers.
type Logger struct {
	*logrus.Logger
	component string
}

// New creates a Logger for the given component name.
func New(component, level, format string) *Logger {
	base := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	base.SetLevel(parsed)

	if format == "text" {
		base.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}
	base.SetOutput(os.Stdout)

	return &Logger{Logger: base, component: component}
}

// NewFromEnv builds a Logger from LOG_LEVEL / LOG_FORMAT, defaulting to
// info/json.
func NewFromEnv(component string) *Logger {
	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(component, level, format)
}

// WithContext returns an entry carrying any trace/instance/account IDs
// found on ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("component", l.component)
	if v := ctx.Value(TraceIDKey); v != nil {
		entry = entry.WithField("trace_id", v)
	}
	if v := ctx.Value(InstanceIDKey); v != nil {
		entry = entry.WithField("instance_id", v)
	}
	if v := ctx.Value(AccountIDKey); v != nil {
		entry = entry.WithField("account_id", v)
	}
	return entry
}

// WithFields returns an entry with the component field plus the given
// fields merged in.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = l.component
	return l.Logger.WithFields(fields)
}

// LogAudit emits a structured audit line independent of the audit chain
// itself; the chain is the durable record, this is for tailing logs.
func (l *Logger) LogAudit(ctx context.Context, action, targetType, targetID, result string) {
	l.WithContext(ctx).WithFields(logrus.Fields{
		"audit":       true,
		"action":      action,
		"target_type": targetType,
		"target_id":   targetID,
		"result":      result,
	}).Info("audit")
}

// LogSafetyDecision logs a safety gate outcome.
func (l *Logger) LogSafetyDecision(ctx context.Context, actionKind, outcome, reason string) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"action_kind": actionKind,
		"outcome":     outcome,
	})
	if reason != "" {
		entry = entry.WithField("reason", reason)
	}
	if outcome == "Blocked" {
		entry.Warn("safety gate decision")
	} else {
		entry.Info("safety gate decision")
	}
}

// LogTransition logs an FSM transition.
func (l *Logger) LogTransition(ctx context.Context, instanceID, from, to, event string) {
	l.WithContext(ctx).WithFields(logrus.Fields{
		"instance_id": instanceID,
		"from":        from,
		"to":          to,
		"event":       event,
	}).Info("failover state transition")
}

// NewTraceID generates a random trace identifier.
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID stashes a trace ID on ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithInstanceID stashes an instance ID on ctx.
func WithInstanceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, InstanceIDKey, id)
}
