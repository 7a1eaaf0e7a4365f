// Package validate implements the optional post-load row-count check.
package validate

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kvist-dev/bronzeload/internal/db"
	"github.com/kvist-dev/bronzeload/pkg/bronzeload"
)

// Counter reads destination row counts. Stateless; no mutation.
type Counter struct{}

// NewCounter creates a Counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Count returns the current row count of the destination table.
//
// Count failures are usually diagnostic, not gating: the orchestrator logs
// them and proceeds. The exception is an unreadable destination (missing
// table or schema, insufficient privilege), which is the same fatal class
// as a loader failure and is wrapped in
// bronzeload.ErrDestinationUnavailable.
func (c *Counter) Count(ctx context.Context, conn *pgxpool.Conn, schema, table string) (int64, error) {
	dest := pgx.Identifier{schema, table}.Sanitize()

	var count int64
	if err := conn.QueryRow(ctx, "SELECT count(*) FROM "+dest).Scan(&count); err != nil {
		if db.IsDestinationUnavailable(err) {
			return 0, fmt.Errorf("%w: %s.%s: %w", bronzeload.ErrDestinationUnavailable, schema, table, err)
		}
		return 0, fmt.Errorf("row count query failed for %s.%s: %w", schema, table, err)
	}
	return count, nil
}
