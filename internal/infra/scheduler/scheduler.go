package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// LogPurger deletes persisted log records older than a cutoff.
type LogPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaintenanceScheduler runs housekeeping cron jobs next to the daily trigger.
type MaintenanceScheduler struct {
	cronEngine       *cron.Cron
	purger           LogPurger
	logger           *logrus.Entry
	cronSpecLogPurge string
	retention        time.Duration
	now              func() time.Time
}

func NewMaintenanceScheduler(
	purger LogPurger,
	logger *logrus.Entry,
	cronSpecLogPurge string, // e.g., "0 3 * * *" (3 AM daily)
	retentionDays int,
	loc *time.Location,
) *MaintenanceScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &MaintenanceScheduler{
		cronEngine:       cron.New(cron.WithLocation(loc)),
		purger:           purger,
		logger:           logger,
		cronSpecLogPurge: cronSpecLogPurge,
		retention:        time.Duration(retentionDays) * 24 * time.Hour,
		now:              time.Now,
	}
}

func (s *MaintenanceScheduler) Start() error {
	s.logger.Info("Starting maintenance scheduler...")

	if s.retention > 0 {
		if _, err := s.cronEngine.AddFunc(s.cronSpecLogPurge, s.purgeLogs); err != nil {
			return fmt.Errorf("could not add log purge cron job: %w", err)
		}
	} else {
		s.logger.Info("Log retention disabled, purge job not scheduled.")
	}

	s.cronEngine.Start()
	s.logger.Info("Maintenance scheduler started.")
	return nil
}

func (s *MaintenanceScheduler) purgeLogs() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	n, err := s.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Failed to purge old log records")
		return
	}
	s.logger.WithFields(logrus.Fields{"purged": n, "cutoff": cutoff.Format(time.RFC3339)}).Info("Old log records purged")
}

func (s *MaintenanceScheduler) Stop() {
	s.logger.Info("Stopping maintenance scheduler...")
	ctx := s.cronEngine.Stop() // Waits for running jobs
	<-ctx.Done()
	s.logger.Info("Maintenance scheduler gracefully stopped.")
}
