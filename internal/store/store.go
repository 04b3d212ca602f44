// Package store persists the tag corpus, consolidation rules, and merge
// history in Badger.
//
// Key layout:
//
//	meta:records:gen        current record generation
//	meta:seq:{name}         monotonic sequence counters
//	record:{gen}:{index}    one album row, in ingestion order
//	rule:{seq}              consolidation rules, in insertion order
//	history:{seq}           applied merges, append-only
//
// Record sets are written as a new generation and published by flipping
// meta:records:gen, so readers never observe a half-written corpus.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const (
	recordPrefix  = "record:"
	rulePrefix    = "rule:"
	historyPrefix = "history:"
	seqPrefix     = "meta:seq:"
	generationKey = "meta:records:gen"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Serializes record generation changes.
	recordsMu sync.Mutex
}

// New opens the database at path. An empty path opens an in-memory store.
func New(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
		opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup
	}
	opts.Logger = nil // Disable Badger's internal logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger.Info("Badger database opened successfully", "path", path, "in_memory", path == "")

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// nextSeq increments and returns the named counter inside txn.
func nextSeq(txn *badger.Txn, name string) (uint64, error) {
	key := []byte(seqPrefix + name)

	var current uint64
	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, err
	default:
		if err := item.Value(func(val []byte) error {
			current, err = strconv.ParseUint(string(val), 10, 64)
			return err
		}); err != nil {
			return 0, fmt.Errorf("read sequence %s: %w", name, err)
		}
	}

	next := current + 1
	if err := txn.Set(key, []byte(strconv.FormatUint(next, 10))); err != nil {
		return 0, err
	}
	return next, nil
}

// setJSON marshals value and stores it under key inside txn.
func setJSON(txn *badger.Txn, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set([]byte(key), data)
}

// scanPrefix decodes every value under prefix in key order.
func scanPrefix[T any](txn *badger.Txn, prefix string) ([]T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	out := []T{}
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		var v T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return nil, fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		out = append(out, v)
	}
	return out, nil
}

func seqKey(prefix string, seq uint64) string {
	return fmt.Sprintf("%s%010d", prefix, seq)
}
