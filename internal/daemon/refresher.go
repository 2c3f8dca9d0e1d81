package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Refresher runs a rebuild on a fixed interval. Remote moniker definitions
// cannot be watched, so a periodic new activity is what re-checks them.
type Refresher struct {
	scheduler gocron.Scheduler
	interval  time.Duration
	refresh   func(ctx context.Context)
	logger    *slog.Logger
	jobID     string
}

// NewRefresher creates a refresher calling refresh every interval.
func NewRefresher(interval time.Duration, refresh func(ctx context.Context)) (*Refresher, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", interval)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Refresher{
		scheduler: s,
		interval:  interval,
		refresh:   refresh,
		logger:    slog.Default(),
	}, nil
}

// WithLogger sets a custom logger.
func (r *Refresher) WithLogger(logger *slog.Logger) *Refresher {
	r.logger = logger
	return r
}

// Start schedules the job and starts the scheduler. Runs never overlap; a
// tick that arrives while a refresh is still running is skipped.
func (r *Refresher) Start(ctx context.Context) error {
	job, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() { r.refresh(ctx) }),
		gocron.WithName("docset-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh job: %w", err)
	}
	r.jobID = job.ID().String()

	r.logger.Info("Starting refresher", slog.Duration("interval", r.interval), slog.String("job_id", r.jobID))
	r.scheduler.Start()
	return nil
}

// JobID returns the scheduled job's id, empty before Start.
func (r *Refresher) JobID() string { return r.jobID }

// Stop shuts the scheduler down, waiting for a running refresh.
func (r *Refresher) Stop() error {
	r.logger.Info("Stopping refresher")
	return r.scheduler.Shutdown()
}
