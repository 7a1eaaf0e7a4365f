package bronzeload

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// LoadEntry is one row of ingestion configuration: a single source file
// bound to a single destination staging table.
type LoadEntry struct {
	// LoadOrder defines the strict processing sequence. Unique among
	// active entries.
	LoadOrder int

	// DestinationSchema and DestinationTable identify the staging table.
	// Together they form the fully qualified destination, which is unique
	// among active entries.
	DestinationSchema string
	DestinationTable  string

	// SourceGroup is the logical source-system name. Source files live
	// under <base_path>/<source_group>/.
	SourceGroup string

	// FileName is the source file name within the resolved source directory.
	FileName string

	// HasHeader indicates the first record of the file is a header line
	// and must be skipped during ingestion.
	HasHeader bool

	// FieldDelimiter separates fields in the source file. Exactly one
	// character.
	FieldDelimiter string

	// IsActive controls whether the entry participates in a run. Inactive
	// entries are skipped entirely: not loaded, not logged.
	IsActive bool
}

// Destination returns the qualified destination name for display purposes.
// SQL statements must sanitize the identifiers separately; never interpolate
// this value into a statement.
func (e LoadEntry) Destination() string {
	return e.DestinationSchema + "." + e.DestinationTable
}

// Delimiter returns the field delimiter as a rune. Validate must have
// passed for the result to be meaningful.
func (e LoadEntry) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(e.FieldDelimiter)
	return r
}

// Validate checks the per-entry invariants. Cross-entry invariants
// (uniqueness of load order and destination) are enforced by the registry.
func (e LoadEntry) Validate() error {
	var errs []error

	if e.DestinationSchema == "" {
		errs = append(errs, fmt.Errorf("destination schema is required: %w", ErrInvalidConfig))
	}
	if e.DestinationTable == "" {
		errs = append(errs, fmt.Errorf("destination table is required: %w", ErrInvalidConfig))
	}
	if e.SourceGroup == "" {
		errs = append(errs, fmt.Errorf("source group is required: %w", ErrInvalidConfig))
	}
	if e.FileName == "" {
		errs = append(errs, fmt.Errorf("file name is required: %w", ErrInvalidConfig))
	}
	if utf8.RuneCountInString(e.FieldDelimiter) != 1 {
		errs = append(errs, fmt.Errorf("field delimiter must be exactly one character, got %q: %w",
			e.FieldDelimiter, ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// RunConfig contains all parameters for one batch run.
type RunConfig struct {
	// BasePath is the root directory under which source files are resolved.
	BasePath string

	// ConnectionString is the PostgreSQL connection string for the
	// warehouse database holding the bronze schema.
	ConnectionString string

	// LogEnabled toggles run logging. Logging is purely observational:
	// control flow and error propagation are identical either way.
	LogEnabled bool

	// ValidateEnabled toggles the post-load row-count check.
	ValidateEnabled bool

	// ParallelLoad is accepted but has no effect. Reserved for a future
	// concurrent loading mode; the sequential ordering guarantee would
	// need redefinition first.
	ParallelLoad bool

	// MaxRejectedLines bounds how many malformed source lines a single
	// load tolerates before aborting. Zero or negative means the default.
	MaxRejectedLines int

	// Timeout is the catastrophic-failure guard for the whole run.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Azure Entra ID credentials (used when AuthMethod is AuthMethodAzureEntraID).
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.BasePath == "" {
		errs = append(errs, fmt.Errorf("BasePath is required: %w", ErrInvalidConfig))
	}
	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}
	if c.MaxRejectedLines < 0 {
		errs = append(errs, fmt.Errorf("max rejected lines cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// LoadResult describes the outcome of one successful table load.
type LoadResult struct {
	Entry LoadEntry

	// RowsLoaded is the number of data records ingested (header excluded).
	RowsLoaded int64

	// RejectedLines counts malformed source lines skipped within tolerance.
	RejectedLines int

	// Duration covers reset, ingest and (when enabled) validation.
	Duration time.Duration

	// ValidatedRows is the destination row count observed by the validator,
	// or nil when validation was disabled or its query failed.
	ValidatedRows *int64
}

// BatchReport summarizes a completed run.
type BatchReport struct {
	RunID    uuid.UUID
	BasePath string
	Start    time.Time
	End      time.Time
	Results  []LoadResult
}

// TotalRows returns the sum of rows loaded across all entries.
func (r *BatchReport) TotalRows() int64 {
	var total int64
	for _, res := range r.Results {
		total += res.RowsLoaded
	}
	return total
}

// Duration returns the wall-clock duration of the whole batch.
func (r *BatchReport) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Additional connection parameters.
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID credentials. If all three are provided, Service
	// Principal authentication is used; otherwise the DefaultAzureCredential
	// chain (env vars, managed identity, CLI, etc.).
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is required for AWS RDS IAM authentication.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name
	// (project:region:instance), required for Google IAM authentication.
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
