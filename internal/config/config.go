package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dotnet/docfx-sub027/internal/errors"
)

// DefaultFileName is the config file looked up when none is given.
const DefaultFileName = "docfx.yml"

// Config is a docset configuration.
type Config struct {
	// MonikerDefinition is a path relative to the config directory or an
	// http(s) URL. Empty disables moniker semantics.
	MonikerDefinition string `yaml:"monikerDefinition,omitempty"`

	Content []string `yaml:"content,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`

	// MonikerRange rules are matched in reverse declaration order.
	MonikerRange RangeRules         `yaml:"monikerRange,omitempty"`
	Groups       Groups             `yaml:"groups,omitempty"`
	FileMetadata FileMetadataConfig `yaml:"fileMetadata,omitempty"`

	Watch   WatchConfig   `yaml:"watch,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Retry   RetryConfig   `yaml:"retry,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`

	// Path is the file the config was loaded from.
	Path string `yaml:"-"`
}

// FileMetadataConfig assigns moniker metadata to files by glob. Frontmatter
// in the file itself takes precedence.
type FileMetadataConfig struct {
	MonikerRange RangeRules       `yaml:"monikerRange,omitempty"`
	Monikers     MonikerListRules `yaml:"monikers,omitempty"`
}

// WatchConfig controls watch mode. Durations use time.ParseDuration syntax.
type WatchConfig struct {
	Debounce        string `yaml:"debounce,omitempty"`
	RefreshInterval string `yaml:"refreshInterval,omitempty"`
}

// DebounceDuration returns the parsed debounce window.
func (w WatchConfig) DebounceDuration() time.Duration { return mustDuration(w.Debounce) }

// RefreshDuration returns the parsed refresh interval.
func (w WatchConfig) RefreshDuration() time.Duration { return mustDuration(w.RefreshInterval) }

// MetricsConfig controls the Prometheus endpoint served in watch mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Listen  string `yaml:"listen,omitempty"`
}

// RetryConfig controls retries of remote resource reads. MaxRetries 0 uses
// the default; a negative value disables retries.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode,omitempty"`
	Initial    string           `yaml:"initial,omitempty"`
	Max        string           `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"maxRetries,omitempty"`
}

// InitialDelay returns the parsed initial delay.
func (r RetryConfig) InitialDelay() time.Duration { return mustDuration(r.Initial) }

// MaxDelay returns the parsed delay cap.
func (r RetryConfig) MaxDelay() time.Duration { return mustDuration(r.Max) }

// Retries returns the number of retries after the first attempt.
func (r RetryConfig) Retries() int {
	if r.MaxRetries < 0 {
		return 0
	}
	return r.MaxRetries
}

// LoggingConfig selects the log level and format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Dir returns the directory relative paths in the config resolve against.
func (c *Config) Dir() string {
	if c.Path == "" {
		return "."
	}
	return filepath.Dir(c.Path)
}

// Load reads, defaults and validates a config file. .env files next to the
// config are loaded first so ${VAR} references can use them.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(configPath)
		}
		return nil, errors.ConfigInvalid(configPath, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.ConfigInvalid(configPath, err)
	}
	cfg.Path = configPath
	return cfg, nil
}

// Parse decodes config data after expanding ${VAR} references, then applies
// defaults and validates. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	normalize(&cfg)
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize case-folds enumerations before defaults are applied.
func normalize(cfg *Config) {
	if cfg.Retry.Mode != "" {
		if m := NormalizeRetryBackoff(string(cfg.Retry.Mode)); m != "" {
			cfg.Retry.Mode = m
		}
	}
	if cfg.Logging.Level != "" {
		if l := NormalizeLogLevel(string(cfg.Logging.Level)); l != "" {
			cfg.Logging.Level = l
		}
	}
	if cfg.Logging.Format != "" {
		cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.New(errors.CategoryConfig, errors.SeverityFatal,
			"configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath)
	}

	example := Config{
		MonikerDefinition: "monikers.json",
		Content:           []string{"**/*.md"},
		Exclude:           []string{"**/node_modules/**", "_site/**"},
		MonikerRange: RangeRules{
			{Glob: "**/*.md", Range: ">= net-5.0"},
		},
		Groups: Groups{
			{Name: "legacy", Files: []string{"legacy/**"}, MonikerRange: "net-5.0"},
		},
		FileMetadata: FileMetadataConfig{
			MonikerRange: RangeRules{{Glob: "api/**", Range: "net-7.0"}},
			Monikers:     MonikerListRules{{Glob: "samples/**", Monikers: []string{"net-6.0", "net-7.0"}}},
		},
		Watch:   WatchConfig{Debounce: defaultDebounce, RefreshInterval: defaultRefreshInterval},
		Metrics: MetricsConfig{Enabled: false, Listen: defaultMetricsListen},
		Retry: RetryConfig{
			Mode:       RetryBackoffLinear,
			Initial:    defaultRetryInitial,
			Max:        defaultRetryMax,
			MaxRetries: defaultMaxRetries,
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.InternalError("failed to marshal example config", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal, "failed to write config file").
			WithContext("path", configPath)
	}
	return nil
}

// mustDuration parses a duration validated by validate; zero on failure.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
