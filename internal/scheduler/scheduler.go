package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/bs-smart-parking/internal/parking"
)

// Refresher is the part of parking.Service the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context, only ...parking.DataSource) parking.RefreshReport
}

// Scheduler periodically refreshes the live garage feed. Street parking is
// deliberately not scheduled; the geographic query is rate sensitive.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, service Refresher, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger,
	}
}

// Start schedules the live refresh job and starts the underlying scheduler.
// The first run happens one interval after Start; the initial load is the caller's job.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).
		WaitForSchedule().
		SingletonMode().
		Do(s.runLiveRefresh)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", zap.Duration("live_interval", s.interval))
	return nil
}

func (s *Scheduler) runLiveRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report := s.service.Refresh(ctx, parking.SourceLive)
	for _, src := range report.Sources {
		s.logger.Info("scheduled live refresh",
			zap.String("refresh_id", report.ID),
			zap.String("origin", src.Origin),
			zap.Int("count", src.Count),
			zap.Bool("degraded", src.Degraded))
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
