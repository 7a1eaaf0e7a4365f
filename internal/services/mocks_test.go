package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kvist-dev/bronzeload/pkg/bronzeload"
)

// mockLoader records load calls in order and fails on demand.
type mockLoader struct {
	mu      sync.Mutex
	loaded  []string // destinations in call order
	paths   []string
	rows    map[string]int64
	rejects map[string]int
	failOn  string // destination that returns failErr
	failErr error
}

func (m *mockLoader) Load(ctx context.Context, conn *pgxpool.Conn, entry bronzeload.LoadEntry, path string) (bronzeload.LoadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dest := entry.Destination()
	m.loaded = append(m.loaded, dest)
	m.paths = append(m.paths, path)

	if m.failOn == dest {
		return bronzeload.LoadResult{}, m.failErr
	}

	result := bronzeload.LoadResult{Entry: entry, RowsLoaded: m.rows[dest]}
	if m.rejects != nil {
		result.RejectedLines = m.rejects[dest]
	}
	return result, nil
}

// mockCounter serves scripted row counts keyed by schema.table.
type mockCounter struct {
	counts map[string]int64
	errOn  string
	err    error
	calls  []string
}

func (m *mockCounter) Count(ctx context.Context, conn *pgxpool.Conn, schema, table string) (int64, error) {
	dest := schema + "." + table
	m.calls = append(m.calls, dest)

	if m.errOn == dest {
		return 0, m.err
	}
	return m.counts[dest], nil
}

// captureLogger records formatted log lines per level.
type captureLogger struct {
	mu      sync.Mutex
	verbose []string
	info    []string
	warns   []string
	errs    []string
}

func (l *captureLogger) Verbose(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = append(l.verbose, fmt.Sprintf(format, args...))
}

func (l *captureLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.info = append(l.info, fmt.Sprintf(format, args...))
}

func (l *captureLogger) Warn(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *captureLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, fmt.Sprintf(format, args...))
}

func (l *captureLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.verbose)+len(l.info)+len(l.warns)+len(l.errs))
	out = append(out, l.verbose...)
	out = append(out, l.info...)
	out = append(out, l.warns...)
	out = append(out, l.errs...)
	return out
}
