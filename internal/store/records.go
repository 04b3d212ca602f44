package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/tagcurator/internal/domain"
)

func generationPrefix(gen uint64) string {
	return fmt.Sprintf("%s%06d:", recordPrefix, gen)
}

// currentGeneration returns the published record generation, 0 if none.
func currentGeneration(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get([]byte(generationKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var gen uint64
	err = item.Value(func(val []byte) error {
		gen, err = strconv.ParseUint(string(val), 10, 64)
		return err
	})
	return gen, err
}

// ListRecords returns the stored corpus in ingestion order.
func (s *Store) ListRecords(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []domain.Record
	err := s.db.View(func(txn *badger.Txn) error {
		gen, err := currentGeneration(txn)
		if err != nil {
			return fmt.Errorf("read generation: %w", err)
		}
		if gen == 0 {
			records = []domain.Record{}
			return nil
		}
		records, err = scanPrefix[domain.Record](txn, generationPrefix(gen))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// ReplaceRecords stores records as the whole corpus.
func (s *Store) ReplaceRecords(ctx context.Context, records []domain.Record) error {
	return s.publishRecords(ctx, records, nil)
}

// publishRecords writes records as a new generation, then in one transaction
// makes it current and runs extra. The previous generation is dropped after.
func (s *Store) publishRecords(ctx context.Context, records []domain.Record, extra func(*badger.Txn) error) error {
	s.recordsMu.Lock()
	defer s.recordsMu.Unlock()

	var oldGen uint64
	if err := s.db.View(func(txn *badger.Txn) error {
		var err error
		oldGen, err = currentGeneration(txn)
		return err
	}); err != nil {
		return fmt.Errorf("read generation: %w", err)
	}
	newGen := oldGen + 1

	if err := s.writeGeneration(ctx, newGen, records); err != nil {
		s.dropGeneration(newGen)
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(generationKey), []byte(strconv.FormatUint(newGen, 10))); err != nil {
			return err
		}
		if extra != nil {
			return extra(txn)
		}
		return nil
	})
	if err != nil {
		s.dropGeneration(newGen)
		return fmt.Errorf("publish records: %w", err)
	}

	if oldGen > 0 {
		s.dropGeneration(oldGen)
	}

	s.logger.Debug("published records", "generation", newGen, "records", len(records))
	return nil
}

// writeGeneration bulk loads records under gen's prefix.
func (s *Store) writeGeneration(ctx context.Context, gen uint64, records []domain.Record) error {
	wb := s.db.NewWriteBatch()

	prefix := generationPrefix(gen)
	for i, r := range records {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				wb.Cancel()
				return err
			}
		}

		data, err := json.Marshal(r)
		if err != nil {
			wb.Cancel()
			return fmt.Errorf("marshal record %d: %w", i, err)
		}
		if err := wb.Set(fmt.Appendf(nil, "%s%010d", prefix, i), data); err != nil {
			wb.Cancel()
			return fmt.Errorf("batch set record %d: %w", i, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}

func (s *Store) dropGeneration(gen uint64) {
	if err := s.db.DropPrefix([]byte(generationPrefix(gen))); err != nil {
		s.logger.Warn("failed to drop record generation", "generation", gen, "error", err)
	}
}
