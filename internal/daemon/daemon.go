// Package daemon keeps a docset resolved while its files change: a
// FileWatcher rebuilds on debounced filesystem events and a Refresher
// rebuilds periodically so remote inputs are re-checked.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dotnet/docfx-sub027/internal/config"
	"github.com/dotnet/docfx-sub027/internal/docset"
	"github.com/dotnet/docfx-sub027/internal/incremental"
	"github.com/dotnet/docfx-sub027/internal/logfields"
	"github.com/dotnet/docfx-sub027/internal/observability"
)

// Resolver resolves a docset. *docset.Docset implements it.
type Resolver interface {
	Resolve(ctx context.Context) (*docset.Report, error)
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Daemon) { d.logger = logger }
}

// WithReportHandler registers a callback run after every successful rebuild.
func WithReportHandler(fn func(*docset.Report)) Option {
	return func(d *Daemon) { d.onReport = fn }
}

// Daemon serializes rebuilds. Each rebuild starts a new activity so inputs
// are re-checked, then resolves the docset.
type Daemon struct {
	resolver Resolver
	watcher  *incremental.Watcher
	logger   *slog.Logger
	onReport func(*docset.Report)

	mu     sync.Mutex
	last   *docset.Report
	builds int
}

// New creates a daemon resolving r under watcher.
func New(r Resolver, watcher *incremental.Watcher, opts ...Option) *Daemon {
	d := &Daemon{resolver: r, watcher: watcher, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Rebuild starts a new activity and resolves the docset.
func (d *Daemon) Rebuild(ctx context.Context, reason string) (*docset.Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	activity := d.watcher.StartActivity()
	ctx = observability.WithTrigger(incremental.WithWatcher(ctx, d.watcher), reason)
	log := observability.Logger(ctx, d.logger)

	report, err := d.resolver.Resolve(ctx)
	if err != nil {
		log.Error("Rebuild failed", logfields.Activity(activity), logfields.Error(err))
		return nil, err
	}

	d.last = report
	d.builds++
	log.Info("Rebuild complete",
		logfields.BuildID(report.ID),
		logfields.Activity(activity),
		slog.Int("recomputed", report.Recomputed),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	if d.onReport != nil {
		d.onReport(report)
	}
	return report, nil
}

// LastReport returns the report of the latest successful rebuild.
func (d *Daemon) LastReport() *docset.Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Builds returns the number of successful rebuilds.
func (d *Daemon) Builds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.builds
}

// Run resolves once, then watches root and refreshes periodically until ctx
// is done. A failing rebuild is logged and retried on the next trigger.
func (d *Daemon) Run(ctx context.Context, root string, cfg config.WatchConfig) error {
	_, _ = d.Rebuild(ctx, "startup")

	fw, err := NewFileWatcher(root, cfg.DebounceDuration(), func(ctx context.Context, changed []string) {
		d.logger.Debug("Files changed", logfields.Count(len(changed)))
		_, _ = d.Rebuild(ctx, "file change")
	})
	if err != nil {
		return err
	}
	fw.WithLogger(d.logger)
	if err := fw.Start(ctx); err != nil {
		return err
	}
	defer fw.Stop()

	refresher, err := NewRefresher(cfg.RefreshDuration(), func(ctx context.Context) {
		_, _ = d.Rebuild(ctx, "refresh")
	})
	if err != nil {
		return err
	}
	refresher.WithLogger(d.logger)
	if err := refresher.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = refresher.Stop() }()

	<-ctx.Done()
	d.logger.Info("Stopping daemon")
	return nil
}
