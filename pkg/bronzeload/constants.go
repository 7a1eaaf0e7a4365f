package bronzeload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess                = 0  // Batch completed successfully
	ExitGeneralError           = 1  // Unknown or unclassified error
	ExitUsageError             = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic                  = 3  // Internal panic (unexpected crash)
	ExitConfigError            = 10 // Invalid configuration or registry definition
	ExitConnectionError        = 11 // Failed to connect to the warehouse database
	ExitDestinationUnavailable = 12 // Destination staging table missing or inaccessible
	ExitLoadFailed             = 13 // Bulk ingestion failed
	ExitRegistryMissing        = 14 // bronzeload.yaml not found at base path
)

const (
	// DefaultBasePath is the conventional dataset root used when no base
	// path argument is given.
	DefaultBasePath = "./datasets"

	// DefaultMaxRejectedLines is how many malformed source lines a single
	// load tolerates before aborting. Bounds blast radius from a handful
	// of corrupt lines without masking systemic format problems. Policy
	// default; override per deployment in bronzeload.yaml.
	DefaultMaxRejectedLines = 10

	// DefaultRunTimeout is the catastrophic-failure guard for a whole run.
	// Not a per-query timeout; bulk ingest is otherwise unbounded-wait.
	DefaultRunTimeout = 3 * time.Minute

	// DefaultRetryInitialDelay is the default initial delay before the
	// first connection retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between connection
	// retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of connection
	// attempts.
	DefaultRetryMaxAttempts = 3
)
