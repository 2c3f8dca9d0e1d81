package config

const (
	defaultContentGlob     = "**/*.md"
	defaultDebounce        = "500ms"
	defaultRefreshInterval = "5m"
	defaultMetricsListen   = ":9464"
	defaultRetryInitial    = "1s"
	defaultRetryMax        = "30s"
	defaultMaxRetries      = 2
)

// applyDefaults fills unset fields. Zero values that are meaningful (an
// empty monikerDefinition, no rules) are left alone.
func applyDefaults(cfg *Config) {
	if len(cfg.Content) == 0 {
		cfg.Content = []string{defaultContentGlob}
	}

	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = defaultDebounce
	}
	if cfg.Watch.RefreshInterval == "" {
		cfg.Watch.RefreshInterval = defaultRefreshInterval
	}

	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = defaultMetricsListen
	}

	if cfg.Retry.Mode == "" {
		cfg.Retry.Mode = RetryBackoffLinear
	}
	if cfg.Retry.Initial == "" {
		cfg.Retry.Initial = defaultRetryInitial
	}
	if cfg.Retry.Max == "" {
		cfg.Retry.Max = defaultRetryMax
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = defaultMaxRetries
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}
