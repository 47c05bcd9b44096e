// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger/repository"
	"github.com/FACorreiaa/sheet-insights/pkg/metrics"
	"github.com/FACorreiaa/sheet-insights/pkg/storage"
)

// DefaultSchedule runs the retention sweep daily at 3:00 AM.
const DefaultSchedule = "0 3 * * *"

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	store    repository.Store
	files    storage.Storage
	ttl      time.Duration
	schedule string
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// SweepResult counts what one retention sweep removed.
type SweepResult struct {
	Sessions int
	Files    int
}

// NewScheduler creates a new job scheduler. Session tables and uploads older
// than ttl are removed on every run of schedule; a zero ttl disables the sweep.
func NewScheduler(store repository.Store, files storage.Storage, ttl time.Duration, schedule string, m *metrics.Metrics, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	if schedule == "" {
		schedule = DefaultSchedule
	}

	return &Scheduler{
		cron:     c,
		store:    store,
		files:    files,
		ttl:      ttl,
		schedule: schedule,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if s.ttl <= 0 {
		s.logger.Info("session retention disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("schedule retention sweep %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("schedule", s.schedule),
		slog.Duration("session_ttl", s.ttl),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers a retention sweep in the background.
func (s *Scheduler) RunNow() {
	go s.sweep()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("retention sweep failed", slog.Any("error", err))
	}
}

// Sweep removes session tables normalized before now-ttl and uploads stored
// before the same cutoff. Upload deletions that fail are logged and skipped.
func (s *Scheduler) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	cutoff := s.now().Add(-s.ttl)

	s.logger.Info("starting retention sweep", slog.Time("cutoff", cutoff))

	sessions, err := s.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("purge session tables: %w", err)
	}
	result.Sessions = sessions

	uploads, err := s.files.List(ctx)
	if err != nil {
		s.metrics.ObservePurge(result.Sessions, 0)
		return result, fmt.Errorf("list uploads: %w", err)
	}

	var failed int
	for _, info := range uploads {
		if !info.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.files.Delete(ctx, info.SessionID); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			s.logger.Warn("failed to delete expired upload",
				slog.String("session_id", info.SessionID),
				slog.Any("error", err),
			)
			failed++
			continue
		}
		result.Files++
	}

	s.metrics.ObservePurge(result.Sessions, result.Files)
	s.logger.Info("retention sweep completed",
		slog.Int("sessions_purged", result.Sessions),
		slog.Int("uploads_deleted", result.Files),
		slog.Int("uploads_failed", failed),
	)
	return result, nil
}
