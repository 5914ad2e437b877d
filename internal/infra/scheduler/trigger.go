package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"holiday_greeter_bot/internal/app"
	"holiday_greeter_bot/internal/domain/holiday"
	"holiday_greeter_bot/internal/infra/config"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Deliverer runs the fan-out for one calendar day.
type Deliverer interface {
	DeliverForDate(ctx context.Context, key holiday.DateKey) (app.DeliveryReport, error)
}

// NewSchedule returns the daily delivery schedule, or a constant short delay in test mode.
func NewSchedule(cfg *config.AppConfig) (cron.Schedule, error) {
	if cfg.IsTest {
		return cron.Every(cfg.TestFireInterval), nil
	}
	sched, err := cron.ParseStandard(cfg.CronSpecDaily)
	if err != nil {
		return nil, fmt.Errorf("invalid daily greeting spec %q: %w", cfg.CronSpecDaily, err)
	}
	// An explicit CRON_TZ= prefix wins over TIMEZONE.
	if spec, ok := sched.(*cron.SpecSchedule); ok && !strings.HasPrefix(cfg.CronSpecDaily, "CRON_TZ=") && !strings.HasPrefix(cfg.CronSpecDaily, "TZ=") {
		spec.Location = cfg.Location
	}
	return sched, nil
}

// Describe says when greetings go out, in words for chat replies.
func Describe(cfg *config.AppConfig) string {
	if cfg.IsTest {
		return fmt.Sprintf("every %s (test mode)", cfg.TestFireInterval)
	}
	fields := strings.Fields(cfg.CronSpecDaily)
	if len(fields) == 5 && fields[2] == "*" && fields[3] == "*" && fields[4] == "*" {
		minute, errM := strconv.Atoi(fields[0])
		hour, errH := strconv.Atoi(fields[1])
		if errM == nil && errH == nil {
			return fmt.Sprintf("every day at %02d:%02d %s", hour, minute, cfg.Location)
		}
	}
	return fmt.Sprintf("on the schedule %q", cfg.CronSpecDaily)
}

// DailyTrigger waits for each fire instant and hands that day to the Deliverer.
// Errors never stop it; it only returns when ctx is cancelled.
type DailyTrigger struct {
	schedule  cron.Schedule
	deliverer Deliverer
	cooldown  time.Duration
	location  *time.Location
	logger    *logrus.Entry
	now       func() time.Time
}

func NewDailyTrigger(schedule cron.Schedule, d Deliverer, cooldown time.Duration, loc *time.Location, logger *logrus.Entry) *DailyTrigger {
	if loc == nil {
		loc = time.Local
	}
	return &DailyTrigger{
		schedule:  schedule,
		deliverer: d,
		cooldown:  cooldown,
		location:  loc,
		logger:    logger,
		now:       time.Now,
	}
}

// NextFire is the first fire instant strictly after now.
func (t *DailyTrigger) NextFire(now time.Time) time.Time {
	return t.schedule.Next(now.In(t.location))
}

// Run blocks until ctx is cancelled.
func (t *DailyTrigger) Run(ctx context.Context) {
	t.logger.Info("Daily trigger loop started.")
	for {
		err := t.iterate(ctx)
		if ctx.Err() != nil {
			t.logger.Info("Daily trigger loop stopped.")
			return
		}
		if err != nil {
			t.logger.WithError(err).Errorf("Trigger iteration failed, retrying after %s", t.cooldown)
			if !sleep(ctx, t.cooldown) {
				t.logger.Info("Daily trigger loop stopped.")
				return
			}
		}
	}
}

func (t *DailyTrigger) iterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("trigger iteration panicked: %v", r)
		}
	}()

	now := t.now()
	target := t.NextFire(now)
	t.logger.WithFields(logrus.Fields{
		"next_fire": target.Format(time.RFC3339),
		"wait":      target.Sub(now).Round(time.Second).String(),
	}).Info("Waiting for next fire")
	if !sleep(ctx, target.Sub(now)) {
		return nil
	}

	key := holiday.KeyOf(target)
	log := t.logger.WithFields(logrus.Fields{
		"fire_id": uuid.NewString(),
		"date":    key.String(),
	})
	log.Info("Fire event triggered")

	report, err := t.deliverer.DeliverForDate(ctx, key)
	if err != nil {
		return fmt.Errorf("delivery for %s failed: %w", key, err)
	}
	log.WithFields(logrus.Fields{
		"holidays":  report.Holidays,
		"attempted": report.Attempted,
		"delivered": report.Delivered,
		"failed":    report.Failed,
	}).Info("Fire event completed")
	return nil
}

// sleep waits for d and reports false if ctx was cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
