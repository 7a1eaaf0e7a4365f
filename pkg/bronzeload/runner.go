package bronzeload

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Runner executes a configured batch load run.
//
// Run processes every active registry entry in load order over a single
// connection. The first fatal failure aborts the batch; remaining entries
// are not processed. The returned report covers completed entries only and
// is nil when the run failed.
type Runner interface {
	Run(ctx context.Context, config RunConfig) (*BatchReport, error)
}

// TableLoader ingests one source file into its staging table, replacing
// the previous contents.
type TableLoader interface {
	Load(ctx context.Context, conn *pgxpool.Conn, entry LoadEntry, path string) (LoadResult, error)
}

// RowCounter reads the current row count of a destination table.
type RowCounter interface {
	Count(ctx context.Context, conn *pgxpool.Conn, schema, table string) (int64, error)
}
