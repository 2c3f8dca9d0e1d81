package docset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/glob"
	"github.com/dotnet/docfx-sub027/internal/incremental"
	"github.com/dotnet/docfx-sub027/internal/logfields"
	"github.com/dotnet/docfx-sub027/internal/observability"
)

// Report is the result of one Resolve.
type Report struct {
	ID          string               `json:"id"`
	Activity    int64                `json:"activity"`
	Files       []FileReport         `json:"files"`
	Diagnostics []*errors.Diagnostic `json:"diagnostics,omitempty"`

	// Recomputed counts files resolved again rather than served from cache.
	Recomputed int `json:"recomputed"`
}

// HasErrors reports whether any diagnostic is error level.
func (r *Report) HasErrors() bool { return errors.HasErrors(r.Diagnostics) }

// buildStats is per-Resolve state shared with the file watches that run
// during that Resolve.
type buildStats struct {
	recomputed atomic.Int64
}

func newBuildStats() *buildStats { return &buildStats{} }

// Resolve resolves every content file. Only files whose inputs changed since
// the previous activity are recomputed.
func (d *Docset) Resolve(ctx context.Context) (*Report, error) {
	start := time.Now()
	scope := incremental.NewScope()
	ctx = incremental.WithScope(ctx, scope)
	stats := d.stats.Get(scope)
	activity := incremental.ActivityID(ctx)
	id := uuid.NewString()
	ctx = observability.WithActivity(observability.WithBuildID(ctx, id), activity)

	if _, err := d.Provider(ctx); err != nil {
		return nil, err
	}
	files, err := d.Files(ctx)
	if err != nil {
		return nil, err
	}
	d.prune(files)

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := d.fileWatch(file).Value(gctx)
			if r.err != nil {
				return r.err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		ID:         id,
		Activity:   activity,
		Files:      make([]FileReport, 0, len(files)),
		Recomputed: int(stats.recomputed.Load()),
	}
	for _, r := range results {
		if r.missing {
			continue
		}
		report.Files = append(report.Files, r.report)
		report.Diagnostics = append(report.Diagnostics, r.diags...)
	}

	elapsed := time.Since(start)
	d.recorder.SetFilesResolved(len(report.Files))
	d.recorder.ObserveResolveDuration(elapsed)
	observability.Logger(ctx, d.logger).Info("Docset resolved",
		logfields.Count(len(report.Files)),
		"recomputed", report.Recomputed,
		"diagnostics", len(report.Diagnostics),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	runtime.KeepAlive(scope)
	return report, nil
}

// ResolveFile resolves a single file, which need not match the content globs.
func (d *Docset) ResolveFile(ctx context.Context, file string) (FileReport, []*errors.Diagnostic, error) {
	scope := incremental.NewScope()
	ctx = incremental.WithScope(ctx, scope)
	defer runtime.KeepAlive(scope)

	file = glob.Normalize(file)
	if filepath.IsAbs(file) {
		rel, err := filepath.Rel(d.root, file)
		if err != nil {
			return FileReport{}, nil, errors.ResourceNotFound(file, err)
		}
		file = glob.Normalize(rel)
	}
	abs := filepath.Join(d.root, filepath.FromSlash(file))
	if _, err := os.Stat(abs); err != nil {
		return FileReport{}, nil, errors.ResourceNotFound(abs, err)
	}

	r := d.fileWatch(file).Value(ctx)
	switch {
	case r.err != nil:
		return FileReport{}, nil, r.err
	case r.missing:
		return FileReport{}, nil, errors.ResourceNotFound(abs, fmt.Errorf("file %s could not be read", file))
	}
	return r.report, r.diags, nil
}
