package bronzeload

// Logger provides a pluggable logging interface for batch runs.
// Implementations must be safe for concurrent use by multiple goroutines.
//
// Logging is purely observational: swapping implementations (or disabling
// output entirely with a null logger) must not change control flow or error
// propagation.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	// Only logged when verbose mode is enabled.
	Verbose(format string, args ...interface{})

	// Info logs informational messages about normal operations.
	Info(format string, args ...interface{})

	// Warn logs non-fatal conditions, such as a failed row-count check.
	Warn(format string, args ...interface{})

	// Error logs error messages.
	Error(format string, args ...interface{})
}
