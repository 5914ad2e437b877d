package logger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (w *recordingWriter) InsertLog(_ context.Context, rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.records = append(w.records, rec)
	return nil
}

func newTestLogger(h logrus.Hook) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.DebugLevel)
	l.AddHook(h)
	return l
}

func TestDBHookLevels(t *testing.T) {
	h := NewDBHook(&recordingWriter{}, logrus.WarnLevel)
	assert.ElementsMatch(t, []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}, h.Levels())
}

func TestDBHookPersistsWarnAndAbove(t *testing.T) {
	w := &recordingWriter{}
	l := newTestLogger(NewDBHook(w, logrus.WarnLevel))

	l.Info("not stored")
	l.WithField("recipient", "@a").WithError(errors.New("peer not found")).Error("delivery failed")

	require.Len(t, w.records, 1)
	rec := w.records[0]
	assert.Equal(t, "error", rec.Level)
	assert.Equal(t, "delivery failed", rec.Message)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(rec.Fields, &fields))
	assert.Equal(t, "@a", fields["recipient"])
	assert.Equal(t, "peer not found", fields[logrus.ErrorKey])
}

func TestDBHookWriterError(t *testing.T) {
	h := NewDBHook(&recordingWriter{err: errors.New("db down")}, logrus.WarnLevel)
	err := h.Fire(logrus.NewEntry(logrus.New()).WithField("k", "v"))
	assert.Error(t, err)
}
