package store

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/tagcurator/internal/domain"
)

// ListHistory returns applied merges oldest first.
func (s *Store) ListHistory(ctx context.Context) ([]domain.MergeHistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []domain.MergeHistoryEntry
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		entries, err = scanPrefix[domain.MergeHistoryEntry](txn, historyPrefix)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// RecordMerge persists a batch apply: the rewritten corpus and its history
// entries become visible together or not at all.
func (s *Store) RecordMerge(ctx context.Context, records []domain.Record, entries []domain.MergeHistoryEntry) error {
	err := s.publishRecords(ctx, records, func(txn *badger.Txn) error {
		return appendHistory(txn, entries)
	})
	if err != nil {
		return fmt.Errorf("record merge: %w", err)
	}

	s.logger.Info("recorded merge batch", "merges", len(entries), "records", len(records))
	return nil
}

func appendHistory(txn *badger.Txn, entries []domain.MergeHistoryEntry) error {
	for _, e := range entries {
		seq, err := nextSeq(txn, "history")
		if err != nil {
			return err
		}
		if err := setJSON(txn, seqKey(historyPrefix, seq), e); err != nil {
			return fmt.Errorf("append history %s: %w", e.ID, err)
		}
	}
	return nil
}
