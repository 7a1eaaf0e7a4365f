// Package services contains the batch orchestrator: the service that
// drives a whole run from registry to report.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kvist-dev/bronzeload/internal/config"
	"github.com/kvist-dev/bronzeload/internal/logging"
	"github.com/kvist-dev/bronzeload/internal/registry"
	"github.com/kvist-dev/bronzeload/internal/source"
	"github.com/kvist-dev/bronzeload/pkg/bronzeload"
)

type connectFunc func(ctx context.Context, connConfig *bronzeload.ConnectionConfig) (*pgxpool.Conn, func(), error)

type loadRegistryFunc func(runCfg bronzeload.RunConfig) (*registry.Registry, error)

// BatchService implements the Runner interface.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
// Create separate instances for concurrent runs.
type BatchService struct {
	connectorFactory func(*bronzeload.ConnectionConfig) (bronzeload.Connector, error)
	loader           bronzeload.TableLoader
	counter          bronzeload.RowCounter
	logger           bronzeload.Logger
	connConfig       *bronzeload.ConnectionConfig
	connect          connectFunc
	loadRegistry     loadRegistryFunc
}

// NewBatchService creates a new BatchService with all dependencies injected.
// connConfig is the resolved connection configuration for the warehouse.
//
// Panics on nil dependencies: those are programmer errors that should fail
// loudly at startup, not surface as nil dereferences mid-run.
func NewBatchService(
	connectorFactory func(*bronzeload.ConnectionConfig) (bronzeload.Connector, error),
	loader bronzeload.TableLoader,
	counter bronzeload.RowCounter,
	logger bronzeload.Logger,
	connConfig *bronzeload.ConnectionConfig,
) *BatchService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if counter == nil {
		panic("counter cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if connConfig == nil {
		panic("connConfig cannot be nil")
	}

	svc := &BatchService{
		connectorFactory: connectorFactory,
		loader:           loader,
		counter:          counter,
		logger:           logger,
		connConfig:       connConfig,
	}
	svc.connect = svc.defaultConnect
	svc.loadRegistry = svc.defaultLoadRegistry
	return svc
}

func (s *BatchService) defaultConnect(ctx context.Context, connConfig *bronzeload.ConnectionConfig) (*pgxpool.Conn, func(), error) {
	connector, err := s.connectorFactory(connConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("%w: failed to acquire connection: %w", bronzeload.ErrConnectionFailed, err)
	}

	cleanup := func() {
		conn.Release()
		pool.Close()
	}
	return conn, cleanup, nil
}

// Run executes a whole batch: read the registry at the base path, load
// every active entry in order over one connection, and report.
//
// The first fatal failure aborts the run; the returned error is a
// *bronzeload.BatchError identifying the failing entry. Entries after the
// failing one are not processed.
func (s *BatchService) Run(ctx context.Context, runCfg bronzeload.RunConfig) (*bronzeload.BatchReport, error) {
	if err := runCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	runID := uuid.New()
	start := time.Now()

	// The failure path always captures run identity and elapsed time, so
	// the error log can name the failing entry without ambient state.
	fail := func(entry bronzeload.LoadEntry, err error) error {
		return &bronzeload.BatchError{
			RunID:   runID,
			Entry:   entry,
			Elapsed: time.Since(start),
			Err:     err,
		}
	}

	log := s.runLogger(runCfg)

	reg, err := s.loadRegistry(runCfg)
	if err != nil {
		return nil, fail(bronzeload.LoadEntry{}, err)
	}

	log.Info("Batch run %s: %d active tables under %s", runID, reg.Len(), runCfg.BasePath)
	if runCfg.ParallelLoad {
		log.Warn("Parallel loading is not supported; processing sequentially")
	}

	conn, cleanup, err := s.connect(ctx, s.connConfig)
	if err != nil {
		return nil, fail(bronzeload.LoadEntry{}, err)
	}
	defer cleanup()

	cursor := reg.Cursor()
	defer cursor.Close()

	results := make([]bronzeload.LoadResult, 0, reg.Len())

	for {
		entry, ok := cursor.Next()
		if !ok {
			break
		}

		if err := ctx.Err(); err != nil {
			return nil, fail(entry, err)
		}

		path := source.Resolve(runCfg.BasePath, entry.SourceGroup, entry.FileName)
		log.Verbose("Loading %s from %s", entry.Destination(), path)

		entryStart := time.Now()

		result, err := s.loader.Load(ctx, conn, entry, path)
		if err != nil {
			log.Error("Load failed for %s: %v", entry.Destination(), err)
			return nil, fail(entry, err)
		}

		if runCfg.ValidateEnabled {
			if err := s.validateCount(ctx, conn, &result, log); err != nil {
				return nil, fail(entry, err)
			}
		}

		result.Duration = time.Since(entryStart)
		results = append(results, result)

		if result.RejectedLines > 0 {
			log.Warn("%s: %d malformed lines rejected", entry.Destination(), result.RejectedLines)
		}
		log.Info("✓ %s: %d rows in %s", entry.Destination(), result.RowsLoaded, result.Duration.Round(time.Millisecond))
	}

	report := &bronzeload.BatchReport{
		RunID:    runID,
		BasePath: runCfg.BasePath,
		Start:    start,
		End:      time.Now(),
		Results:  results,
	}

	log.Info("✓ Batch completed: %d tables, %d rows in %s",
		len(report.Results), report.TotalRows(), report.Duration().Round(time.Millisecond))

	return report, nil
}

// runLogger returns the injected logger, or a null logger when run logging
// is disabled. Disabled logging changes output only; control flow and
// error propagation are identical.
func (s *BatchService) runLogger(runCfg bronzeload.RunConfig) bronzeload.Logger {
	if !runCfg.LogEnabled {
		return logging.NewNullLogger()
	}
	return s.logger
}

// defaultLoadRegistry reads bronzeload.yaml at the base path and builds
// the ordered registry. The registry is read fresh on every run.
func (s *BatchService) defaultLoadRegistry(runCfg bronzeload.RunConfig) (*registry.Registry, error) {
	projectConfig, err := config.Load(runCfg.BasePath)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w: %w", bronzeload.ErrRegistryNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", bronzeload.ErrInvalidConfig, err)
	}

	return registry.New(projectConfig.Entries())
}

// validateCount runs the optional post-load row-count check. A failed
// count query is a warning, not a batch failure, unless the destination
// itself is unreadable.
func (s *BatchService) validateCount(ctx context.Context, conn *pgxpool.Conn, result *bronzeload.LoadResult, log bronzeload.Logger) error {
	entry := result.Entry

	count, err := s.counter.Count(ctx, conn, entry.DestinationSchema, entry.DestinationTable)
	if err != nil {
		if errors.Is(err, bronzeload.ErrDestinationUnavailable) {
			return err
		}
		log.Warn("Row count check failed for %s: %v", entry.Destination(), err)
		return nil
	}

	result.ValidatedRows = &count
	if count != result.RowsLoaded {
		log.Warn("%s: row count is %d, expected %d", entry.Destination(), count, result.RowsLoaded)
	} else {
		log.Verbose("%s: row count verified (%d)", entry.Destination(), count)
	}
	return nil
}
