package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/glob"
)

// validate checks the whole config after defaults, in dependency order.
func validate(cfg *Config) error {
	steps := []func(*Config) error{
		validateContent,
		validateRules,
		validateGroups,
		validateDurations,
		validateEnums,
	}
	for _, step := range steps {
		if err := step(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateContent(cfg *Config) error {
	if _, err := glob.CompileAll(cfg.Content); err != nil {
		return err
	}
	if _, err := glob.CompileAll(cfg.Exclude); err != nil {
		return err
	}
	return nil
}

func validateRules(cfg *Config) error {
	for _, rule := range cfg.MonikerRange {
		if _, err := glob.Compile(rule.Glob); err != nil {
			return err
		}
	}
	for _, rule := range cfg.FileMetadata.MonikerRange {
		if _, err := glob.Compile(rule.Glob); err != nil {
			return err
		}
	}
	for _, rule := range cfg.FileMetadata.Monikers {
		if _, err := glob.Compile(rule.Glob); err != nil {
			return err
		}
		if len(rule.Monikers) == 0 {
			return errors.ValidationFailed("fileMetadata.monikers",
				fmt.Sprintf("line %d: empty moniker list for %q", rule.Line, rule.Glob))
		}
	}
	return nil
}

func validateGroups(cfg *Config) error {
	seen := make(map[string]struct{}, len(cfg.Groups))
	for _, g := range cfg.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return errors.ValidationFailed("groups", fmt.Sprintf("line %d: group name is empty", g.Line))
		}
		key := strings.ToLower(g.Name)
		if _, dup := seen[key]; dup {
			return errors.ValidationFailed("groups", fmt.Sprintf("line %d: duplicate group %q", g.Line, g.Name))
		}
		seen[key] = struct{}{}
		if len(g.Files) == 0 {
			return errors.ValidationFailed("groups."+g.Name+".files", "at least one glob is required")
		}
		if _, err := glob.CompileAll(g.Files); err != nil {
			return err
		}
		if _, err := glob.CompileAll(g.Exclude); err != nil {
			return err
		}
	}
	return nil
}

func validateDurations(cfg *Config) error {
	fields := []struct {
		name  string
		value string
	}{
		{"watch.debounce", cfg.Watch.Debounce},
		{"watch.refreshInterval", cfg.Watch.RefreshInterval},
		{"retry.initial", cfg.Retry.Initial},
		{"retry.max", cfg.Retry.Max},
	}
	for _, f := range fields {
		d, err := time.ParseDuration(f.value)
		if err != nil {
			return errors.ValidationFailed(f.name, fmt.Sprintf("invalid duration %q", f.value))
		}
		if d <= 0 {
			return errors.ValidationFailed(f.name, "duration must be positive")
		}
	}
	if cfg.Retry.InitialDelay() > cfg.Retry.MaxDelay() {
		return errors.ValidationFailed("retry.initial", "initial delay exceeds retry.max")
	}
	return nil
}

func validateEnums(cfg *Config) error {
	if NormalizeRetryBackoff(string(cfg.Retry.Mode)) == "" {
		return errors.ValidationFailed("retry.mode", fmt.Sprintf("unknown backoff mode %q", cfg.Retry.Mode))
	}
	if NormalizeLogLevel(string(cfg.Logging.Level)) == "" {
		return errors.ValidationFailed("logging.level", fmt.Sprintf("unknown log level %q", cfg.Logging.Level))
	}
	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.Listen) == "" {
		return errors.ValidationFailed("metrics.listen", "required when metrics are enabled")
	}
	return nil
}
