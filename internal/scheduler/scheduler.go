package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Refresher is the part of the conditions service the warmer drives.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// Scheduler periodically refreshes the conditions cache so client reads hit
// warm entries. Client requests never wait on it.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler. timeout bounds one refresh run.
func New(interval, timeout time.Duration, service Refresher, logger *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = interval
	}
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the refresh job and starts the underlying scheduler. A
// non-positive interval disables warming.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler: cache warming disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.warm)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler: cache warming started", zap.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) warm() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.service.RefreshAll(ctx); err != nil {
		s.logger.Warn("scheduler: refresh completed with failures",
			zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	s.logger.Info("scheduler: refresh completed", zap.Duration("took", time.Since(start)))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
