// Package logger declares the logging contract used across evroute. The
// zerolog implementation lives in infra/logger.
package logger

// Logger exposes leveled, printf-style logging plus a structured debug call.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs msg with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Nop discards everything. It is the zero-config logger for the core
// packages and for tests.
type Nop struct{}

func (Nop) Debugf(string, ...any)         {}
func (Nop) Debugw(string, map[string]any) {}
func (Nop) Infof(string, ...any)          {}
func (Nop) Warnf(string, ...any)          {}
func (Nop) Errorf(string, ...any)         {}

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop{}
	}
	return l
}
