package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvist-dev/bronzeload/internal/config"
	"github.com/kvist-dev/bronzeload/internal/db"
	"github.com/kvist-dev/bronzeload/internal/loader"
	"github.com/kvist-dev/bronzeload/internal/logging"
	"github.com/kvist-dev/bronzeload/internal/testdb"
	"github.com/kvist-dev/bronzeload/internal/validate"
	"github.com/kvist-dev/bronzeload/pkg/bronzeload"
)

const integrationRegistryYAML = `tables:
  - load_order: 1
    schema: bronze_svc
    table: t1
    source_group: grpA
    file: a.csv
    header: true
    delimiter: ","
  - load_order: 2
    schema: bronze_svc
    table: t2
    source_group: grpA
    file: b.csv
    header: false
    delimiter: "|"
`

func setupBatchDB(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()

	connString := testdb.RequireDatabase(t)
	pool := testdb.GetTestPool(t, connString)
	testdb.CreateTestSchema(t, pool, "bronze_svc")

	ctx := context.Background()
	_, err := pool.Exec(ctx, `CREATE TABLE bronze_svc.t1 (id int, name text)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `CREATE TABLE bronze_svc.t2 (code text, qty int)`)
	require.NoError(t, err)

	return pool, connString
}

func setupBatchDataset(t *testing.T, includeA bool) string {
	t.Helper()

	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, config.ConfigFileName), []byte(integrationRegistryYAML), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "grpA"), 0755))

	if includeA {
		require.NoError(t, os.WriteFile(filepath.Join(base, "grpA", "a.csv"),
			[]byte("id,name\n1,alice\n2,bob\n3,carol\n"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(base, "grpA", "b.csv"),
		[]byte("X1|10\nX2|20\nX3|30\nX4|40\n"), 0644))

	return base
}

func newIntegrationService(t *testing.T, connString string) *BatchService {
	t.Helper()

	connConfig, err := db.ParseConnectionString(connString)
	require.NoError(t, err)

	return NewBatchService(
		db.NewConnector,
		loader.New(bronzeload.DefaultMaxRejectedLines),
		validate.NewCounter(),
		logging.NewNullLogger(),
		connConfig,
	)
}

func TestBatchService_FullRun(t *testing.T) {
	pool, connString := setupBatchDB(t)
	base := setupBatchDataset(t, true)
	svc := newIntegrationService(t, connString)

	cfg := bronzeload.RunConfig{
		BasePath:         base,
		ConnectionString: connString,
		LogEnabled:       true,
	}

	report, err := svc.Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, int64(3), report.Results[0].RowsLoaded)
	assert.Equal(t, int64(4), report.Results[1].RowsLoaded)
	assert.Equal(t, int64(7), report.TotalRows())

	ctx := context.Background()
	var n int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM bronze_svc.t1`).Scan(&n))
	assert.Equal(t, int64(3), n)
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM bronze_svc.t2`).Scan(&n))
	assert.Equal(t, int64(4), n)
}

func TestBatchService_MissingSourceFileAbortsBeforeLaterEntries(t *testing.T) {
	pool, connString := setupBatchDB(t)
	base := setupBatchDataset(t, false) // no a.csv
	svc := newIntegrationService(t, connString)

	ctx := context.Background()
	// Pre-existing rows in t2 prove it was never touched.
	_, err := pool.Exec(ctx, `INSERT INTO bronze_svc.t2 VALUES ('OLD', 1)`)
	require.NoError(t, err)

	cfg := bronzeload.RunConfig{
		BasePath:         base,
		ConnectionString: connString,
		LogEnabled:       true,
	}

	report, err := svc.Run(ctx, cfg)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, bronzeload.ErrLoadFailed)
	assert.Contains(t, err.Error(), filepath.Join(base, "grpA", "a.csv"))

	var batchErr *bronzeload.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, "bronze_svc.t1", batchErr.Entry.Destination())

	var n int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM bronze_svc.t2 WHERE code = 'OLD'`).Scan(&n))
	assert.Equal(t, int64(1), n)
}

func TestBatchService_ValidationVerifiesCounts(t *testing.T) {
	_, connString := setupBatchDB(t)
	base := setupBatchDataset(t, true)
	svc := newIntegrationService(t, connString)

	cfg := bronzeload.RunConfig{
		BasePath:         base,
		ConnectionString: connString,
		LogEnabled:       true,
		ValidateEnabled:  true,
	}

	report, err := svc.Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	require.NotNil(t, report.Results[0].ValidatedRows)
	assert.Equal(t, int64(3), *report.Results[0].ValidatedRows)
	require.NotNil(t, report.Results[1].ValidatedRows)
	assert.Equal(t, int64(4), *report.Results[1].ValidatedRows)
}

func TestBatchService_RerunReplacesContents(t *testing.T) {
	pool, connString := setupBatchDB(t)
	base := setupBatchDataset(t, true)
	svc := newIntegrationService(t, connString)

	cfg := bronzeload.RunConfig{
		BasePath:         base,
		ConnectionString: connString,
	}

	ctx := context.Background()
	_, err := svc.Run(ctx, cfg)
	require.NoError(t, err)
	report, err := svc.Run(ctx, cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(7), report.TotalRows())

	var n int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM bronze_svc.t1`).Scan(&n))
	assert.Equal(t, int64(3), n)
}
