// Package logging adapts third-party loggers to the interfaces.Logger
// contract used by the core.
package logging

import (
	"github.com/sirupsen/logrus"
)

// LogrusAdapter wraps a *logrus.Logger.
type LogrusAdapter struct {
	logger *logrus.Logger
}

// NewLogrusAdapter creates an adapter. A nil logger falls back to the
// logrus standard logger.
func NewLogrusAdapter(logger *logrus.Logger) *LogrusAdapter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusAdapter{logger: logger}
}

func (l *LogrusAdapter) Debug(msg string, fields map[string]any) {
	l.logger.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l *LogrusAdapter) Info(msg string, fields map[string]any) {
	l.logger.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l *LogrusAdapter) Warn(msg string, fields map[string]any) {
	l.logger.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (l *LogrusAdapter) Error(msg string, fields map[string]any) {
	l.logger.WithFields(logrus.Fields(fields)).Error(msg)
}
