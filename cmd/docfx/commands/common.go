// Package commands implements the docfx command line.
package commands

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dotnet/docfx-sub027/internal/config"
	"github.com/dotnet/docfx-sub027/internal/docset"
	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/incremental"
	"github.com/dotnet/docfx-sub027/internal/metrics"
)

// ErrDiagnostics is returned in strict mode when resolution reported an
// error-level diagnostic.
var ErrDiagnostics = stdErrors.New("resolution reported error diagnostics")

// Global carries state shared by all commands.
type Global struct {
	Stdout io.Writer
}

// CLI definition and global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"docfx.yml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format (text or json); defaults to the config setting"`
	Strict    bool             `help:"Exit with an error when any error-level diagnostic is reported"`
	ShowVer   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Monikers MonikersCmd `cmd:"" help:"Resolve file-level monikers for the docset or the given files"`
	Zones    ZonesCmd    `cmd:"" help:"Resolve the moniker zones of a markdown file"`
	Watch    WatchCmd    `cmd:"" help:"Keep the docset resolved while files change"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`

	levelFromFlags bool `kong:"-"`
}

// AfterApply runs after flag parsing; set up logging once. The config's
// logging section is applied later, when a command loads it.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := config.LogLevelInfo
	switch {
	case c.Verbose:
		level = config.LogLevelDebug
		c.levelFromFlags = true
	default:
		if l, ok := config.EnvLogLevel(); ok {
			level = l
			c.levelFromFlags = true
		}
	}
	setupLogging(level, config.NormalizeLogFormat(c.LogFormat))
	return nil
}

// applyConfigLogging switches to the config's logging settings unless the
// command line or environment already chose a level.
func (c *CLI) applyConfigLogging(cfg *config.Config) {
	level := cfg.Logging.Level
	if c.levelFromFlags {
		level = config.LogLevelInfo
		if c.Verbose {
			level = config.LogLevelDebug
		} else if l, ok := config.EnvLogLevel(); ok {
			level = l
		}
	}
	format := cfg.Logging.Format
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	setupLogging(level, format)
}

func setupLogging(level config.LogLevel, format config.LogFormat) {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openDocset loads the config (for logging) and creates the docset.
func (c *CLI) openDocset(recorder metrics.Recorder) (*docset.Docset, *config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, nil, err
	}
	c.applyConfigLogging(cfg)

	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	ds := docset.New(c.Config,
		docset.WithLogger(slog.Default()),
		docset.WithRecorder(recorder))
	return ds, cfg, nil
}

func newContext() (context.Context, *incremental.Watcher) {
	w := incremental.NewWatcher().WithLogger(slog.Default())
	return incremental.WithWatcher(context.Background(), w), w
}

// checkStrict fails in strict mode when diags contain an error.
func (c *CLI) checkStrict(diags []*errors.Diagnostic) error {
	if c.Strict && errors.HasErrors(diags) {
		return ErrDiagnostics
	}
	return nil
}
