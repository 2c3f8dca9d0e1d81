package commands

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dotnet/docfx-sub027/internal/daemon"
	"github.com/dotnet/docfx-sub027/internal/docset"
	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/incremental"
	"github.com/dotnet/docfx-sub027/internal/logfields"
	"github.com/dotnet/docfx-sub027/internal/metrics"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Metrics bool   `help:"Serve Prometheus metrics (overrides metrics.enabled)"`
	Listen  string `help:"Metrics listen address (overrides metrics.listen)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return w.run(ctx, g, root)
}

func (w *WatchCmd) run(ctx context.Context, g *Global, root *CLI) error {
	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	ds, cfg, err := root.openDocset(recorder)
	if err != nil {
		return err
	}

	if w.Metrics || cfg.Metrics.Enabled {
		addr := cfg.Metrics.Listen
		if w.Listen != "" {
			addr = w.Listen
		}
		srv := startMetricsServer(addr, reg)
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	watcher := incremental.NewWatcher().
		WithLogger(slog.Default()).
		WithRecorder(recorder)
	d := daemon.New(ds, watcher, daemon.WithReportHandler(func(r *docset.Report) {
		errors.LogDiagnostics(slog.Default(), r.Diagnostics)
		fmt.Fprintf(g.Stdout, "activity %d: %d files, %d recomputed, %d diagnostics\n",
			r.Activity, len(r.Files), r.Recomputed, len(r.Diagnostics))
	}))

	slog.Info("Watching docset", slog.String("root", ds.Root()))
	return d.Run(ctx, ds.Root(), cfg.Watch)
}

func startMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("Serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	return srv
}
