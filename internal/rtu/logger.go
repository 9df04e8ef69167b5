package rtu

// Logger defines the logging capability consumed by the RTU core.
//
// The five severities mirror the operational taxonomy of the gateway:
// Critical for fatal configuration problems, Warn for soft failures
// (unattached addresses, invalid type-IDs, transmission failures),
// Debug for per-query traces. Implementations must be safe for
// concurrent use.
type Logger interface {
	Critical(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// noopLogger is installed when no logger is supplied, so call sites
// never need to branch on "logger present".
type noopLogger struct{}

func (noopLogger) Critical(string, ...any) {}
func (noopLogger) Error(string, ...any)    {}
func (noopLogger) Warn(string, ...any)     {}
func (noopLogger) Info(string, ...any)     {}
func (noopLogger) Debug(string, ...any)    {}
