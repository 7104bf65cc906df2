package alns

import "github.com/sirupsen/logrus"

// Logger is the minimal structured-logging sink the driver writes
// iteration progress, restart triggers, and defensive warnings through.
// *logrus.Logger satisfies this interface already; NewDefaultLogger wires
// it in directly so the core never falls back to a bare stdlib logger.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// NewDefaultLogger returns a logrus.Logger at Info level, text-formatted,
// suitable for a caller that wants progress output without building its
// own logger.
func NewDefaultLogger() Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return l
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}

func logOf(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}
