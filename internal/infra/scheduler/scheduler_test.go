package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	cutoffs []time.Time
	err     error
}

func (p *fakePurger) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoffs = append(p.cutoffs, cutoff)
	return 3, p.err
}

func TestMaintenancePurgeUsesRetention(t *testing.T) {
	p := &fakePurger{}
	l, hook := test.NewNullLogger()
	s := NewMaintenanceScheduler(p, logrus.NewEntry(l), "0 3 * * *", 30, time.UTC)
	now := time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.purgeLogs()

	require.Len(t, p.cutoffs, 1)
	assert.True(t, p.cutoffs[0].Equal(now.AddDate(0, 0, -30)))
	assert.Equal(t, int64(3), hook.LastEntry().Data["purged"])
}

func TestMaintenancePurgeError(t *testing.T) {
	p := &fakePurger{err: errors.New("db down")}
	l, hook := test.NewNullLogger()
	s := NewMaintenanceScheduler(p, logrus.NewEntry(l), "0 3 * * *", 30, time.UTC)

	s.purgeLogs()
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestMaintenanceStartRejectsBadSpec(t *testing.T) {
	l, _ := test.NewNullLogger()
	s := NewMaintenanceScheduler(&fakePurger{}, logrus.NewEntry(l), "not a spec", 30, time.UTC)
	assert.Error(t, s.Start())
}

func TestMaintenanceStartStop(t *testing.T) {
	l, _ := test.NewNullLogger()
	s := NewMaintenanceScheduler(&fakePurger{}, logrus.NewEntry(l), "0 3 * * *", 0, time.UTC)
	require.NoError(t, s.Start())
	s.Stop()
}
