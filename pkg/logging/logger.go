package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/mvpaudrey/afcon-live/pkg/config"
)

// Logger represents a logger instance
type Logger = *logrus.Logger

// Fields represents structured logging fields
type Fields = logrus.Fields

// Level represents a log level
type Level = logrus.Level

// Log levels
const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

// NewLogger creates a new configured logger instance
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(config.GetLogLevel())
	return logger
}

// NewLoggerWithService creates a logger with a service field
func NewLoggerWithService(serviceName string) *logrus.Logger {
	logger := NewLogger()

	// Add service name to all log entries
	logger.AddHook(serviceFieldHook{service: serviceName})

	return logger
}

// serviceFieldHook sets the "service" field on every entry that does not
// already carry one.
type serviceFieldHook struct{ service string }

func (h serviceFieldHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceFieldHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = h.service
	}
	return nil
}

// FixtureFields builds the league_id/season pair that tags almost every log
// line this service emits, plus any additional key/value pairs (e.g.
// "error", err.Error()). extra is read two entries at a time; a trailing
// unpaired key is dropped rather than panicking on a bad call site.
func FixtureFields(leagueID int64, season int, extra ...interface{}) Fields {
	f := Fields{"league_id": leagueID, "season": season}
	for i := 0; i+1 < len(extra); i += 2 {
		if key, ok := extra[i].(string); ok {
			f[key] = extra[i+1]
		}
	}
	return f
}
