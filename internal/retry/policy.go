// Package retry retries operations that fail with retryable errors, waiting
// between attempts according to a backoff Policy.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dotnet/docfx-sub027/internal/config"
	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/logfields"
)

// Policy describes how often and how long to wait before retrying.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration // delay before the first retry
	Max        time.Duration // upper bound for any single delay
	MaxRetries int           // retries after the first attempt; zero disables retrying
}

// DefaultPolicy is linear backoff starting at 1s, capped at 30s, with 2 retries.
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.RetryBackoffLinear,
		Initial:    time.Second,
		Max:        30 * time.Second,
		MaxRetries: 2,
	}
}

// NewPolicy overlays the given values on DefaultPolicy. Non-positive
// durations, a negative retry count and an unknown mode keep the default.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if m := config.NormalizeRetryBackoff(string(mode)); m != "" {
		p.Mode = m
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// FromConfig builds the policy described by the retry section of a config.
func FromConfig(cfg config.RetryConfig) Policy {
	return NewPolicy(cfg.Mode, cfg.InitialDelay(), cfg.MaxDelay(), cfg.Retries())
}

// Delay returns how long to wait before retry n, counting from 1.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	d := p.Initial
	switch p.Mode {
	case config.RetryBackoffFixed:
	case config.RetryBackoffExponential:
		d = p.Initial << (n - 1)
	default:
		d = p.Initial * time.Duration(n)
	}
	// A shift or multiplication past int64 wraps to zero or a negative value.
	if d <= 0 || d > p.Max {
		return p.Max
	}
	return d
}

// Validate reports a policy that cannot be applied.
func (p Policy) Validate() error {
	switch {
	case p.Initial <= 0:
		return fmt.Errorf("retry: initial delay must be positive, got %s", p.Initial)
	case p.Max <= 0:
		return fmt.Errorf("retry: max delay must be positive, got %s", p.Max)
	case p.MaxRetries < 0:
		return fmt.Errorf("retry: max retries must not be negative, got %d", p.MaxRetries)
	}
	return nil
}

// Do calls fn until it succeeds, fails with an error errors.IsRetryable
// rejects, or MaxRetries retries have failed. A done ctx interrupts the
// wait between attempts.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	for retry := 1; err != nil && errors.IsRetryable(err) && retry <= p.MaxRetries; retry++ {
		delay := p.Delay(retry)
		slog.Warn("Retrying operation",
			slog.String("operation", op),
			logfields.Attempt(retry),
			logfields.DurationMS(float64(delay.Milliseconds())),
			logfields.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w (last error: %v)", op, ctx.Err(), err)
		case <-timer.C:
		}
		err = fn(ctx)
	}
	switch {
	case err == nil:
		return nil
	case !errors.IsRetryable(err) || p.MaxRetries == 0:
		return err
	}
	return fmt.Errorf("%s failed after %d retries: %w", op, p.MaxRetries, err)
}
