// Package loader performs the destination reset and bulk ingestion for a
// single load entry: truncate the staging table, then stream the source
// file into it with COPY.
package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kvist-dev/bronzeload/internal/db"
	"github.com/kvist-dev/bronzeload/pkg/bronzeload"
)

// Loader resets and bulk-loads one destination table per call.
//
// A load is idempotent per call: truncate-then-load always yields the same
// end state for a fixed input file. It is NOT safe to run concurrently
// against the same destination; callers must serialize runs externally.
type Loader struct {
	maxRejects int
}

// New creates a Loader. maxRejects bounds how many malformed source lines
// a single load tolerates; zero or negative selects the default.
func New(maxRejects int) *Loader {
	if maxRejects <= 0 {
		maxRejects = bronzeload.DefaultMaxRejectedLines
	}
	return &Loader{maxRejects: maxRejects}
}

// Load truncates the destination table and streams the source file into
// it. Reset, lock and ingest run in one transaction on the given
// connection: the destination holds its previous rows if any step fails.
//
// Error classes:
//   - destination missing or inaccessible: bronzeload.ErrDestinationUnavailable
//   - file missing/unreadable, malformed beyond tolerance, or rejected by
//     destination column typing: bronzeload.ErrLoadFailed with the
//     resolved path and underlying cause
func (l *Loader) Load(ctx context.Context, conn *pgxpool.Conn, entry bronzeload.LoadEntry, path string) (bronzeload.LoadResult, error) {
	result := bronzeload.LoadResult{Entry: entry}

	f, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("%w: %s: cannot read source file %s: %w",
			bronzeload.ErrLoadFailed, entry.Destination(), path, err)
	}
	defer f.Close()

	// Identifiers are bound through pgx sanitization, never concatenated raw.
	dest := pgx.Identifier{entry.DestinationSchema, entry.DestinationTable}.Sanitize()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction for %s: %w", entry.Destination(), err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Exclusive lock for the whole reset+load. The table is about to be
	// truncated, so no reader depends on transactional isolation here and
	// the lock maximizes ingest throughput.
	if _, err := tx.Exec(ctx, "LOCK TABLE "+dest+" IN ACCESS EXCLUSIVE MODE"); err != nil {
		return result, classifyResetError(err, entry)
	}

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+dest); err != nil {
		return result, classifyResetError(err, entry)
	}

	stream := newCSVStream(f, entry.Delimiter(), entry.HasHeader, l.maxRejects)
	tag, err := tx.Conn().PgConn().CopyFrom(ctx, stream, "COPY "+dest+" FROM STDIN (FORMAT csv)")
	if err != nil {
		if stream.RejectLimitExceeded() {
			return result, fmt.Errorf("%w: %s: file %s: %d malformed lines exceed tolerance of %d",
				bronzeload.ErrLoadFailed, entry.Destination(), path, stream.Rejected(), l.maxRejects)
		}
		return result, fmt.Errorf("%w: %s: file %s: %w",
			bronzeload.ErrLoadFailed, entry.Destination(), path, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("failed to commit load of %s: %w", entry.Destination(), err)
	}

	result.RowsLoaded = tag.RowsAffected()
	result.RejectedLines = stream.Rejected()
	return result, nil
}

// classifyResetError maps reset (lock/truncate) failures onto the error
// taxonomy. A missing or inaccessible table is the fatal
// destination-unavailable class; anything else keeps its own message.
func classifyResetError(err error, entry bronzeload.LoadEntry) error {
	if db.IsDestinationUnavailable(err) {
		return fmt.Errorf("%w: %s: %w", bronzeload.ErrDestinationUnavailable, entry.Destination(), err)
	}
	return fmt.Errorf("failed to reset %s: %w", entry.Destination(), err)
}
