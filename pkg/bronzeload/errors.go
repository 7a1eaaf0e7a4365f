package bronzeload

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := batch.Run(ctx, config)
//	if errors.Is(err, bronzeload.ErrDestinationUnavailable) {
//	    // staging table missing or inaccessible
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrRegistryNotFound indicates no bronzeload.yaml was found at the
	// base path.
	ErrRegistryNotFound = errors.New("load registry not found")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrDestinationUnavailable indicates a destination staging table is
	// missing or inaccessible. Fatal: aborts the batch.
	ErrDestinationUnavailable = errors.New("destination unavailable")

	// ErrLoadFailed indicates bulk ingestion of a source file failed:
	// file missing or unreadable, malformed beyond tolerance, or a type
	// mismatch at the destination. Fatal: aborts the batch.
	ErrLoadFailed = errors.New("load failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication
	// method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// BatchError is the fatal failure of a batch run. It carries the run
// context captured at the failure site so the caller and the error log can
// name the failing entry without ambient state.
type BatchError struct {
	// RunID identifies the batch run that failed.
	RunID uuid.UUID

	// Entry is the load entry in progress when the failure occurred.
	// Zero-valued when the failure happened before any entry started
	// (connection, configuration).
	Entry LoadEntry

	// Elapsed is the batch duration at the failure site.
	Elapsed time.Duration

	// Err is the underlying cause, unchanged.
	Err error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.Entry.DestinationTable == "" {
		return fmt.Sprintf("batch %s failed after %s: %v", e.RunID, e.Elapsed.Round(time.Millisecond), e.Err)
	}
	return fmt.Sprintf("batch %s failed at %s after %s: %v",
		e.RunID, e.Entry.Destination(), e.Elapsed.Round(time.Millisecond), e.Err)
}

// Unwrap returns the underlying cause so errors.Is/As see through the
// batch context.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for sentinel errors
	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrRegistryNotFound):
		return ExitRegistryMissing
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrDestinationUnavailable):
		return ExitDestinationUnavailable
	case errors.Is(err, ErrLoadFailed):
		return ExitLoadFailed
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	}

	// Check for common connection error patterns
	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
