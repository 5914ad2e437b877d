package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"holiday_greeter_bot/internal/app"
	"holiday_greeter_bot/internal/domain/holiday"
	"holiday_greeter_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// delaySchedule fires a fixed delay after every call, below cron.Every's one second floor.
type delaySchedule time.Duration

func (d delaySchedule) Next(t time.Time) time.Time { return t.Add(time.Duration(d)) }

type scriptedDeliverer struct {
	mu    sync.Mutex
	calls []time.Time
	keys  []holiday.DateKey
	errs  []error // returned in order, then nil
	panic bool
}

func (d *scriptedDeliverer) DeliverForDate(_ context.Context, key holiday.DateKey) (app.DeliveryReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, time.Now())
	d.keys = append(d.keys, key)
	if d.panic && len(d.calls) == 1 {
		panic("fan-out exploded")
	}
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		return app.DeliveryReport{}, err
	}
	return app.DeliveryReport{Holidays: 1, Attempted: 1, Delivered: 1}, nil
}

func (d *scriptedDeliverer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func dailySchedule(t *testing.T) *DailyTrigger {
	t.Helper()
	sched, err := NewSchedule(&config.AppConfig{CronSpecDaily: "0 10 * * *", Location: time.UTC})
	require.NoError(t, err)
	return NewDailyTrigger(sched, &scriptedDeliverer{}, time.Minute, time.UTC, discardLogger())
}

func TestNextFire(t *testing.T) {
	trig := dailySchedule(t)
	day := func(d, h, m, s int) time.Time { return time.Date(2026, time.March, d, h, m, s, 0, time.UTC) }

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{name: "early morning", now: day(5, 6, 30, 0), want: day(5, 10, 0, 0)},
		{name: "one second before", now: day(5, 9, 59, 59), want: day(5, 10, 0, 0)},
		{name: "exactly at target", now: day(5, 10, 0, 0), want: day(6, 10, 0, 0)},
		{name: "just after target", now: day(5, 10, 0, 1), want: day(6, 10, 0, 0)},
		{name: "late evening", now: day(5, 23, 59, 59), want: day(6, 10, 0, 0)},
		{name: "month rollover", now: time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC), want: time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trig.NextFire(tt.now)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestNextFireWithinOneDay(t *testing.T) {
	trig := dailySchedule(t)
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 48*60; i += 7 {
		now := start.Add(time.Duration(i) * time.Minute).Add(250 * time.Millisecond)
		next := trig.NextFire(now)
		require.True(t, next.After(now), "now=%s next=%s", now, next)
		require.LessOrEqual(t, next.Sub(now), 24*time.Hour, "now=%s next=%s", now, next)

		todayTarget := time.Date(now.Year(), now.Month(), now.Day(), 10, 0, 0, 0, time.UTC)
		if !now.Before(todayTarget) {
			require.True(t, next.Equal(todayTarget.AddDate(0, 0, 1)), "now=%s next=%s", now, next)
		} else {
			require.True(t, next.Equal(todayTarget), "now=%s next=%s", now, next)
		}
	}
}

func TestNewScheduleHonoursTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	sched, err := NewSchedule(&config.AppConfig{CronSpecDaily: "0 10 * * *", Location: loc})
	require.NoError(t, err)

	now := time.Date(2026, time.May, 1, 6, 0, 0, 0, time.UTC) // 09:00 at UTC+3
	next := sched.Next(now)
	assert.True(t, next.Equal(time.Date(2026, time.May, 1, 7, 0, 0, 0, time.UTC)), "got %s", next)
}

func TestNewScheduleRejectsInvalidSpec(t *testing.T) {
	_, err := NewSchedule(&config.AppConfig{CronSpecDaily: "every day at ten", Location: time.UTC})
	assert.Error(t, err)
}

func TestTestModeFiresWithinFortySeconds(t *testing.T) {
	sched, err := NewSchedule(&config.AppConfig{IsTest: true, TestFireInterval: 30 * time.Second, CronSpecDaily: "0 10 * * *"})
	require.NoError(t, err)

	for _, now := range []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 9, 59, 45, 500, time.UTC),
		time.Date(2026, 1, 1, 23, 59, 59, 999, time.UTC),
	} {
		next := sched.Next(now)
		assert.True(t, next.After(now))
		assert.LessOrEqual(t, next.Sub(now), 40*time.Second)
	}
}

func TestRunFiresWithDateOfTarget(t *testing.T) {
	d := &scriptedDeliverer{}
	trig := NewDailyTrigger(delaySchedule(5*time.Millisecond), d, time.Hour, time.UTC, discardLogger())
	fixed := time.Date(2026, time.March, 5, 9, 59, 59, 0, time.UTC)
	trig.now = func() time.Time { return fixed }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		trig.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return d.callCount() >= 1 }, time.Second, time.Millisecond)
	cancel()
	<-done

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Equal(t, holiday.DateKey{Day: 5, Month: 3}, d.keys[0])
}

func TestRunSurvivesFailuresAfterCooldown(t *testing.T) {
	d := &scriptedDeliverer{errs: []error{holiday.ErrLookupFailed, errors.New("boom")}}
	cooldown := 30 * time.Millisecond
	trig := NewDailyTrigger(delaySchedule(time.Millisecond), d, cooldown, time.UTC, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		trig.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return d.callCount() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	<-done

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.GreaterOrEqual(t, d.calls[1].Sub(d.calls[0]), cooldown)
	assert.GreaterOrEqual(t, d.calls[2].Sub(d.calls[1]), cooldown)
}

func TestRunRecoversFromPanic(t *testing.T) {
	d := &scriptedDeliverer{panic: true}
	trig := NewDailyTrigger(delaySchedule(time.Millisecond), d, 5*time.Millisecond, time.UTC, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		trig.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return d.callCount() >= 2 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestRunStopsWhileWaiting(t *testing.T) {
	d := &scriptedDeliverer{}
	trig := NewDailyTrigger(delaySchedule(time.Hour), d, time.Minute, time.UTC, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		trig.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Zero(t, d.callCount())
}

func TestDescribe(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	tests := []struct {
		name string
		cfg  config.AppConfig
		want string
	}{
		{name: "default", cfg: config.AppConfig{CronSpecDaily: "0 10 * * *", Location: time.UTC}, want: "every day at 10:00 UTC"},
		{name: "custom time and zone", cfg: config.AppConfig{CronSpecDaily: "30 8 * * *", Location: moscow}, want: "every day at 08:30 MSK"},
		{name: "weekdays only", cfg: config.AppConfig{CronSpecDaily: "0 9 * * 1-5", Location: time.UTC}, want: `on the schedule "0 9 * * 1-5"`},
		{name: "test mode", cfg: config.AppConfig{IsTest: true, TestFireInterval: 30 * time.Second, CronSpecDaily: "0 10 * * *"}, want: "every 30s (test mode)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(&tt.cfg))
		})
	}
}
