package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Record is a log entry as stored in the 'logs' table.
type Record struct {
	Timestamp time.Time
	Level     string
	Message   string
	Fields    json.RawMessage
}

// RecordWriter persists log records.
type RecordWriter interface {
	InsertLog(ctx context.Context, rec Record) error
}

// DBHook copies entries at or above a minimum level into the database.
type DBHook struct {
	writer  RecordWriter
	levels  []logrus.Level
	timeout time.Duration
}

// NewDBHook returns a hook firing for minLevel and every more severe level.
func NewDBHook(w RecordWriter, minLevel logrus.Level) *DBHook {
	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, l := range logrus.AllLevels {
		if l <= minLevel {
			levels = append(levels, l)
		}
	}
	return &DBHook{writer: w, levels: levels, timeout: 3 * time.Second}
}

func (h *DBHook) Levels() []logrus.Level {
	return h.levels
}

func (h *DBHook) Fire(entry *logrus.Entry) error {
	fields := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			fields[k] = err.Error()
			continue
		}
		fields[k] = v
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		raw = []byte("{}")
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := h.writer.InsertLog(ctx, Record{
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Fields:    raw,
	}); err != nil {
		// logrus prints hook errors to stderr; returning keeps the entry itself intact.
		return fmt.Errorf("failed to persist log entry: %w", err)
	}
	return nil
}
