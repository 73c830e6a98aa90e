package logger

import corelogger "github.com/kilianp07/roster/core/logger"

type Logger = corelogger.Logger

// NopLogger discards everything. Tests and library callers without a
// configured logger use it.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns the logger of a component ("engine", "api", "mqtt", ...) in the
// format selected by Setup.
func New(component string) Logger {
	return NewZerologLogger(component)
}
