// Package service holds the write paths shared by the CLI, the review API,
// and the records file watcher.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/listenupapp/tagcurator/internal/analyzer"
	"github.com/listenupapp/tagcurator/internal/consolidator"
	"github.com/listenupapp/tagcurator/internal/corpus"
	"github.com/listenupapp/tagcurator/internal/domain"
)

// RecordStore persists the full record set.
type RecordStore interface {
	ReplaceRecords(ctx context.Context, records []domain.Record) error
}

// CurationService serializes the operations that rewrite the corpus: record
// imports and batch merge applies. Reads go straight to the consolidator.
type CurationService struct {
	mu           sync.Mutex
	store        RecordStore
	corpus       *corpus.Corpus
	consolidator *consolidator.Consolidator
	logger       *slog.Logger
}

// NewCurationService creates a new curation service.
func NewCurationService(store RecordStore, c *corpus.Corpus, con *consolidator.Consolidator, logger *slog.Logger) *CurationService {
	return &CurationService{
		store:        store,
		corpus:       c,
		consolidator: con,
		logger:       logger,
	}
}

// ImportRecords stores records and resyncs the analyzer. With appendMode the
// records are added to the corpus, otherwise they replace it. Queued merges
// previewed against the old corpus become stale.
func (s *CurationService) ImportRecords(ctx context.Context, records []domain.Record, appendMode bool) (analyzer.BuildReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if appendMode {
		existing, _ := s.corpus.Snapshot()
		if err := s.store.ReplaceRecords(ctx, append(existing, records...)); err != nil {
			return analyzer.BuildReport{}, fmt.Errorf("store records: %w", err)
		}
		s.corpus.Append(records...)
	} else {
		if err := s.store.ReplaceRecords(ctx, records); err != nil {
			return analyzer.BuildReport{}, fmt.Errorf("store records: %w", err)
		}
		s.corpus.Replace(records)
	}

	report := s.consolidator.Sync()
	s.logger.Info("Records imported",
		"records", len(records),
		"append", appendMode,
		"tags", report.Tags,
		"corpus_version", s.corpus.Version(),
	)
	return report, nil
}

// ImportFile reads a JSON records file and imports it.
func (s *CurationService) ImportFile(ctx context.Context, path string, appendMode bool) (analyzer.BuildReport, error) {
	records, err := ReadRecordsFile(path)
	if err != nil {
		return analyzer.BuildReport{}, err
	}
	return s.ImportRecords(ctx, records, appendMode)
}

// ApplyMerges applies the pending queue. It cannot interleave with an import.
func (s *CurationService) ApplyMerges(ctx context.Context) (*domain.ApplyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.consolidator.ApplyPendingMerges(ctx)
}

// ReadRecordsFile parses a JSON array of album records.
func ReadRecordsFile(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- Import path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	return records, nil
}
