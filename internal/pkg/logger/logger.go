package logger

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// AppLogger is the application logger with structured JSON output
type AppLogger struct {
	*logrus.Logger
}

// NewAppLogger creates a new application logger
func NewAppLogger(config models.LoggerConfig) *AppLogger {
	log := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	return &AppLogger{Logger: log}
}

// WithService returns an entry tagged with the service name
func (al *AppLogger) WithService(name string) *logrus.Entry {
	return al.Logger.WithField("service", name)
}
