// Package docset ties configuration, the moniker definition, file metadata
// and markdown zones into one incremental resolution of a docset.
//
// Every input is read through internal/incremental, so a Resolve after
// Watcher.StartActivity recomputes only what depends on changed inputs:
// editing one markdown file recomputes that file, editing docfx.yml or the
// moniker definition rebuilds the provider and with it every file.
package docset

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dotnet/docfx-sub027/internal/config"
	"github.com/dotnet/docfx-sub027/internal/glob"
	"github.com/dotnet/docfx-sub027/internal/incremental"
	"github.com/dotnet/docfx-sub027/internal/metadata"
	"github.com/dotnet/docfx-sub027/internal/metrics"
	"github.com/dotnet/docfx-sub027/internal/moniker"
	"github.com/dotnet/docfx-sub027/internal/resource"
	"github.com/dotnet/docfx-sub027/internal/retry"
)

// Option configures a Docset.
type Option func(*Docset)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Docset) { d.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(d *Docset) { d.recorder = recorder }
}

// WithResolverOptions customizes the resource resolver built for each config,
// for example to inject an HTTP client.
func WithResolverOptions(fn func(*resource.Resolver) *resource.Resolver) Option {
	return func(d *Docset) { d.resolverOpts = fn }
}

// Docset resolves monikers for the files of one docset. It is safe for
// concurrent use.
type Docset struct {
	configPath string
	root       string
	fsys       fs.FS

	logger       *slog.Logger
	recorder     metrics.Recorder
	resolverOpts func(*resource.Resolver) *resource.Resolver

	config     *incremental.Watch[configResult]
	definition *incremental.Watch[definitionResult]
	provider   *incremental.Watch[providerResult]

	mu    sync.Mutex
	files map[string]*incremental.Watch[fileResult]

	stats *incremental.Scoped[*buildStats]
}

type configResult struct {
	cfg *config.Config
	err error
}

type definitionResult struct {
	def *moniker.Definition
	err error
}

type providerResult struct {
	cfg      *config.Config
	provider *moniker.Provider
	err      error
}

// New creates a docset rooted at the directory of configPath. Nothing is read
// until the first Resolve.
func New(configPath string, opts ...Option) *Docset {
	root := filepath.Dir(configPath)
	d := &Docset{
		configPath: configPath,
		root:       root,
		fsys:       os.DirFS(root),
		logger:     slog.Default(),
		recorder:   metrics.NoopRecorder{},
		files:      make(map[string]*incremental.Watch[fileResult]),
		stats:      incremental.NewScoped(newBuildStats),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.config = incremental.NewWatch(d.loadConfig).Named("config")
	d.definition = incremental.NewWatch(d.loadDefinition).Named("definition")
	d.provider = incremental.NewWatch(d.buildProvider).Named("provider")
	return d
}

// Root returns the docset directory.
func (d *Docset) Root() string { return d.root }

// ConfigPath returns the config file the docset was created from.
func (d *Docset) ConfigPath() string { return d.configPath }

// Config returns the current configuration.
func (d *Docset) Config(ctx context.Context) (*config.Config, error) {
	r := d.config.Value(ctx)
	return r.cfg, r.err
}

// Provider returns the moniker provider for the current configuration and
// definition, rebuilding it only when either changed.
func (d *Docset) Provider(ctx context.Context) (*moniker.Provider, error) {
	r := d.provider.Value(ctx)
	return r.provider, r.err
}

// Files returns the docset-relative content files, sorted.
func (d *Docset) Files(ctx context.Context) ([]string, error) {
	cfg, err := d.Config(ctx)
	if err != nil {
		return nil, err
	}
	return glob.Files(d.fsys, cfg.Content, cfg.Exclude)
}

func (d *Docset) loadConfig(ctx context.Context) configResult {
	return incremental.Read(ctx,
		func() configResult {
			cfg, err := config.Load(d.configPath)
			return configResult{cfg: cfg, err: err}
		},
		func() resource.Token { return resource.FileToken(d.configPath) })
}

func (d *Docset) resolver(cfg *config.Config) *resource.Resolver {
	r := resource.NewResolver(cfg.Dir()).
		WithRetryPolicy(retry.FromConfig(cfg.Retry)).
		WithLogger(d.logger)
	if d.resolverOpts != nil {
		r = d.resolverOpts(r)
	}
	return r
}

func (d *Docset) loadDefinition(ctx context.Context) definitionResult {
	cfg, err := d.Config(ctx)
	if err != nil {
		return definitionResult{err: err}
	}
	path := cfg.MonikerDefinition
	if path == "" {
		return definitionResult{def: &moniker.Definition{}}
	}

	r := d.resolver(cfg)
	// Token checks run on later activities, after ctx may be gone.
	tokenCtx := context.WithoutCancel(ctx)
	return incremental.Read(ctx,
		func() definitionResult {
			def, err := moniker.LoadDefinition(ctx, r, path)
			return definitionResult{def: def, err: err}
		},
		func() resource.Token { return r.ChangeToken(tokenCtx, path) })
}

func (d *Docset) buildProvider(ctx context.Context) providerResult {
	cfg, err := d.Config(ctx)
	if err != nil {
		return providerResult{err: err}
	}
	defResult := d.definition.Value(ctx)
	if defResult.err != nil {
		return providerResult{err: defResult.err}
	}

	configFile := filepath.Base(d.configPath)
	meta, err := metadata.New(d.fsys, cfg.FileMetadata, configFile)
	if err != nil {
		return providerResult{err: err}
	}
	scope, err := NewBuildScope(cfg.Groups, configFile)
	if err != nil {
		return providerResult{err: err}
	}

	p, err := moniker.NewProvider(moniker.Options{
		Definition: defResult.def,
		Rules:      Rules(cfg.MonikerRange, configFile),
		BuildScope: scope,
		Metadata:   meta.WithLogger(d.logger),
		Logger:     d.logger,
		Recorder:   d.recorder,
	})
	if err != nil {
		return providerResult{err: err}
	}
	d.logger.Info("Moniker provider ready",
		slog.Int("monikers", defResult.def.Len()),
		slog.Int("rules", len(cfg.MonikerRange)),
		slog.Int("groups", len(cfg.Groups)))
	return providerResult{cfg: cfg, provider: p}
}

// fileWatch returns the Watch resolving file, creating it on first use.
func (d *Docset) fileWatch(file string) *incremental.Watch[fileResult] {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.files[file]
	if !ok {
		w = incremental.NewWatch(func(ctx context.Context) fileResult {
			return d.resolveFile(ctx, file)
		}).Named(file)
		d.files[file] = w
	}
	return w
}

// prune drops watches of files no longer in the docset.
func (d *Docset) prune(current []string) {
	keep := make(map[string]struct{}, len(current))
	for _, f := range current {
		keep[f] = struct{}{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for f := range d.files {
		if _, ok := keep[f]; !ok {
			delete(d.files, f)
		}
	}
}
