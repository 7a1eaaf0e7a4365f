// Package registry materializes the load configuration into an ordered,
// immutable sequence of active entries and hands out cursors over it.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/kvist-dev/bronzeload/pkg/bronzeload"
)

// Registry is the validated load configuration for one run: the active
// entries sorted ascending by load order. It is constructed fresh at the
// start of each run and never mutated afterwards.
type Registry struct {
	active []bronzeload.LoadEntry

	// openCursors tracks outstanding iteration handles so a leaked cursor
	// is observable. The orchestrator must release its cursor on every
	// exit path, failure included.
	openCursors atomic.Int32
}

// New validates the entries and builds a registry. Inactive entries are
// dropped here and never touched again: not loaded, not logged.
//
// Malformed definitions are a configuration-time concern; they fail the
// run before any destination table is touched.
func New(entries []bronzeload.LoadEntry) (*Registry, error) {
	var errs []error
	seenOrder := make(map[int]string)
	seenDest := make(map[string]int)

	var active []bronzeload.LoadEntry
	for _, entry := range entries {
		if !entry.IsActive {
			continue
		}
		if err := entry.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", entry.LoadOrder, entry.Destination(), err))
			continue
		}
		if prev, ok := seenOrder[entry.LoadOrder]; ok {
			errs = append(errs, fmt.Errorf("duplicate load order %d (%s and %s): %w",
				entry.LoadOrder, prev, entry.Destination(), bronzeload.ErrInvalidConfig))
		}
		if prev, ok := seenDest[entry.Destination()]; ok {
			errs = append(errs, fmt.Errorf("duplicate destination %s (load orders %d and %d): %w",
				entry.Destination(), prev, entry.LoadOrder, bronzeload.ErrInvalidConfig))
		}
		seenOrder[entry.LoadOrder] = entry.Destination()
		seenDest[entry.Destination()] = entry.LoadOrder
		active = append(active, entry)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	sort.Slice(active, func(i, j int) bool { return active[i].LoadOrder < active[j].LoadOrder })

	return &Registry{active: active}, nil
}

// Active returns the active entries sorted ascending by load order.
// The returned slice is a copy; mutating it does not affect the registry.
func (r *Registry) Active() []bronzeload.LoadEntry {
	out := make([]bronzeload.LoadEntry, len(r.active))
	copy(out, r.active)
	return out
}

// Len returns the number of active entries.
func (r *Registry) Len() int {
	return len(r.active)
}

// OpenCursors returns the number of cursors that have been opened but not
// yet closed. It should be zero whenever no iteration is in progress.
func (r *Registry) OpenCursors() int {
	return int(r.openCursors.Load())
}

// Cursor opens a forward iterator over the active entries. The caller
// must Close it on every exit path; Close is idempotent.
func (r *Registry) Cursor() *Cursor {
	r.openCursors.Add(1)
	return &Cursor{registry: r}
}

// Cursor is a forward-only iteration handle over a registry's active
// entries. Not safe for concurrent use.
type Cursor struct {
	registry *Registry
	next     int
	closed   bool
}

// Next returns the next entry in ascending load order. The second return
// value is false when the cursor is exhausted or closed.
func (c *Cursor) Next() (bronzeload.LoadEntry, bool) {
	if c.closed || c.next >= len(c.registry.active) {
		return bronzeload.LoadEntry{}, false
	}
	entry := c.registry.active[c.next]
	c.next++
	return entry, true
}

// Close releases the cursor. Safe to call more than once; only the first
// call releases the handle.
func (c *Cursor) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.registry.openCursors.Add(-1)
}
