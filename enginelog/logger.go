// Package enginelog configures the structured logger shared by every engine
// component, built on logrus the same way the teacher's common/logger.go
// configures its service loggers.
package enginelog

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Level names mirror logrus's own, so callers never need to import logrus
// directly just to pick a severity.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

// Config describes how to build a logger for one engine component.
type Config struct {
	Level      string // debug/info/warn/error/fatal; defaults to info
	Format     string // "json" or "text"; defaults to text
	Service    string // component name attached to every record
	Version    string
	AddCaller  bool
	TimeFormat string
}

// DefaultConfig returns a Config with sensible defaults for local use.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Format:     "text",
		TimeFormat: time.RFC3339,
	}
}

// New builds a logrus.Logger configured per config, with output routed
// through OutputSplitter.
func New(config Config) *logrus.Logger {
	if config.TimeFormat == "" {
		config.TimeFormat = time.RFC3339
	}

	logger := logrus.New()
	logger.SetLevel(parseLevel(config.Level))

	if config.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: config.TimeFormat})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{TimestampFormat: config.TimeFormat, FullTimestamp: true})
	}

	logger.SetReportCaller(config.AddCaller)
	logger.SetOutput(&OutputSplitter{})
	return logger
}

// WithService returns an Entry pre-populated with the service/version
// fields from config, so every subsequent log call on it carries them
// without the caller repeating WithFields everywhere.
func WithService(logger *logrus.Logger, config Config) *logrus.Entry {
	fields := logrus.Fields{}
	if config.Service != "" {
		fields["service"] = config.Service
	}
	if config.Version != "" {
		fields["version"] = config.Version
	}
	return logger.WithFields(fields)
}

func parseLevel(level string) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	case LevelFatal:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
