// internal/infra/logger/logger.go
package logger

import (
	"os"
	"strings"

	"holiday_greeter_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

// Log is the global logger instance
var Log = logrus.New()

// Init configures level and format for the environment. Hooks installed
// earlier are dropped, so calling Init again starts from a clean logger.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout)
	Log.ReplaceHooks(make(logrus.LevelHooks))
	Log.SetFormatter(newFormatter(cfg.Environment))

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
		Log.WithError(err).Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
	}
	Log.SetLevel(level)

	Log.WithFields(logrus.Fields{
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
	}).Info("Logger initialized.")
}

// Persist copies entries at minLevel and above into the logs table through w.
// Call it once the database is reachable; entries logged before are not backfilled.
func Persist(w RecordWriter, minLevel logrus.Level) {
	Log.AddHook(NewDBHook(w, minLevel))
	Log.WithField("min_level", minLevel.String()).Info("Persisting log entries to the database.")
}

func newFormatter(environment string) logrus.Formatter {
	switch environment {
	case "production", "staging":
		return &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
		}
	default:
		return &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		}
	}
}

// Component returns an entry tagged with the given component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
