// Package corpus owns the album record set the engine operates on.
//
// Every mutation bumps a version counter. Derived state (the analyzer graph,
// similarity caches, merge previews) records the version it was computed from,
// which is how staleness is detected.
package corpus

import (
	"sync"

	"github.com/listenupapp/tagcurator/internal/domain"
)

// Corpus is the mutable, versioned album record set.
//
// Thread safety: all methods are safe for concurrent use. Readers always see
// either the record set before a Commit or after it, never a mix.
type Corpus struct {
	mu      sync.RWMutex
	records []domain.Record
	version uint64
}

// New creates a corpus holding a copy of records at version 1.
func New(records []domain.Record) *Corpus {
	return &Corpus{
		records: domain.CloneRecords(records),
		version: 1,
	}
}

// Version returns the current corpus version.
func (c *Corpus) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Len returns the number of records, including malformed ones.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Snapshot returns a deep copy of the records together with their version.
func (c *Corpus) Snapshot() ([]domain.Record, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.CloneRecords(c.records), c.version
}

// Replace swaps in a new record set unconditionally.
// Used by ingestion; anything previewed before the call becomes stale.
func (c *Corpus) Replace(records []domain.Record) uint64 {
	cp := domain.CloneRecords(records)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = cp
	c.version++
	return c.version
}

// Append adds records. Any preview computed before the call becomes stale.
func (c *Corpus) Append(records ...domain.Record) uint64 {
	cp := domain.CloneRecords(records)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, cp...)
	c.version++
	return c.version
}

// Commit swaps in records only if the corpus is still at expected.
// It returns the new version, or ok=false when another writer got there first.
func (c *Corpus) Commit(expected uint64, records []domain.Record) (version uint64, ok bool) {
	cp := domain.CloneRecords(records)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version != expected {
		return c.version, false
	}
	c.records = cp
	c.version++
	return c.version, true
}

// Rollback undoes the Commit that produced committed, restoring records and
// the version they were at. It returns false and changes nothing when the
// corpus was written after that Commit.
func (c *Corpus) Rollback(committed uint64, records []domain.Record, version uint64) bool {
	cp := domain.CloneRecords(records)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version != committed || version >= committed {
		return false
	}
	c.records = cp
	c.version = version
	return true
}
