package corpus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcurator/internal/domain"
)

func TestCorpus_SnapshotIsIsolated(t *testing.T) {
	input := []domain.Record{{AlbumID: "a1", Tags: []string{"rock"}}}
	c := New(input)

	// Mutating the caller's slice must not leak in.
	input[0].Tags[0] = "pop"

	snap, version := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "rock", snap[0].Tags[0])
	assert.Equal(t, uint64(1), version)

	// Mutating the snapshot must not leak back.
	snap[0].Tags[0] = "jazz"
	again, _ := c.Snapshot()
	assert.Equal(t, "rock", again[0].Tags[0])
}

func TestCorpus_MutationsBumpVersion(t *testing.T) {
	c := New(nil)
	assert.Equal(t, uint64(1), c.Version())

	v := c.Append(domain.Record{AlbumID: "a1", Tags: []string{}})
	assert.Equal(t, uint64(2), v)
	assert.Equal(t, 1, c.Len())

	v = c.Replace([]domain.Record{{AlbumID: "a2", Tags: []string{"pop"}}, {AlbumID: "a3"}})
	assert.Equal(t, uint64(3), v)
	assert.Equal(t, 2, c.Len())
}

func TestCorpus_CommitChecksVersion(t *testing.T) {
	c := New([]domain.Record{{AlbumID: "a1", Tags: []string{"rock"}}})

	_, ok := c.Commit(99, nil)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	v, ok := c.Commit(1, []domain.Record{{AlbumID: "a1", Tags: []string{"pop"}}})
	require.True(t, ok)
	assert.Equal(t, uint64(2), v)

	snap, _ := c.Snapshot()
	assert.Equal(t, []string{"pop"}, snap[0].Tags)
}

func TestCorpus_ConcurrentCommitsSerialize(t *testing.T) {
	c := New(nil)

	var wg sync.WaitGroup
	wins := make(chan uint64, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, ok := c.Commit(1, []domain.Record{{AlbumID: "x", Tags: []string{}}}); ok {
				wins <- v
			}
		}()
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one commit against version 1 may succeed")
	assert.Equal(t, uint64(2), c.Version())
}

func TestCorpus_Rollback(t *testing.T) {
	before := []domain.Record{{AlbumID: "a1", Tags: []string{"rok"}}}
	c := New(before)

	v, ok := c.Commit(1, []domain.Record{{AlbumID: "a1", Tags: []string{"rock"}}})
	require.True(t, ok)

	require.True(t, c.Rollback(v, before, 1))
	snap, version := c.Snapshot()
	assert.Equal(t, uint64(1), version)
	assert.Equal(t, before, snap)

	// A write after the commit blocks the rollback.
	v, ok = c.Commit(1, []domain.Record{{AlbumID: "a1", Tags: []string{"rock"}}})
	require.True(t, ok)
	c.Append(domain.Record{AlbumID: "a2", Tags: []string{"jazz"}})
	assert.False(t, c.Rollback(v, before, 1))
	assert.Equal(t, 2, c.Len())
}
