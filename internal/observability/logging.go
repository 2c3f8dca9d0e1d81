// Package observability carries per-rebuild log context (build id, trigger,
// activity) through context.Context so log records from deep inside a
// resolution can be tied back to the rebuild that caused them.
package observability

import (
	"context"
	"log/slog"

	"github.com/dotnet/docfx-sub027/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	BuildID  string
	Trigger  string
	Activity int64
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithBuildID adds a build ID to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	lc := extractLogContext(ctx)
	lc.BuildID = buildID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithTrigger records what started the rebuild ("startup", "file change").
func WithTrigger(ctx context.Context, trigger string) context.Context {
	lc := extractLogContext(ctx)
	lc.Trigger = trigger
	return context.WithValue(ctx, logContextKey, lc)
}

// WithActivity adds the incremental activity id to the context.
func WithActivity(ctx context.Context, activity int64) context.Context {
	lc := extractLogContext(ctx)
	lc.Activity = activity
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

func getLogAttrs(ctx context.Context) []any {
	lc := extractLogContext(ctx)
	var attrs []any
	if lc.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(lc.BuildID))
	}
	if lc.Trigger != "" {
		attrs = append(attrs, slog.String("trigger", lc.Trigger))
	}
	if lc.Activity != 0 {
		attrs = append(attrs, logfields.Activity(lc.Activity))
	}
	return attrs
}

// Logger returns base annotated with ctx's log context.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	attrs := getLogAttrs(ctx)
	if len(attrs) == 0 {
		return base
	}
	return base.With(attrs...)
}
