package search

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// TagIndex wraps an in-memory Bleve index of canonical tag names.
//
// Thread safety: All public methods are safe for concurrent use.
// Rebuild swaps in a fresh index under an exclusive lock.
type TagIndex struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the tag index.
type Options struct {
	Logger *slog.Logger // Logger for operations (uses discard if nil)
}

// batchSize bounds the number of documents per Bleve batch.
const batchSize = 500

// NewTagIndex creates an empty in-memory tag index.
func NewTagIndex(opts Options) (*TagIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &TagIndex{
		index:  index,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *TagIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Rebuild replaces the indexed vocabulary with tags.
func (s *TagIndex) Rebuild(tags []string) error {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	for i := 0; i < len(tags); i += batchSize {
		end := min(i+batchSize, len(tags))

		batch := fresh.NewBatch()
		for _, tag := range tags[i:end] {
			if tag == "" {
				continue
			}
			if err := batch.Index(tag, NewTagDocument(tag).ToMap()); err != nil {
				_ = fresh.Close()
				return fmt.Errorf("batch index %q: %w", tag, err)
			}
		}

		if err := fresh.Batch(batch); err != nil {
			_ = fresh.Close()
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	s.mu.Lock()
	old := s.index
	s.index = fresh
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		s.logger.Warn("failed to close previous tag index", "error", err)
	}
	s.logger.Debug("rebuilt tag index", "tags", len(tags))
	return nil
}

// Add indexes tags without dropping existing ones.
func (s *TagIndex) Add(tags ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, tag := range tags {
		if err := batch.Index(tag, NewTagDocument(tag).ToMap()); err != nil {
			return fmt.Errorf("batch index %q: %w", tag, err)
		}
	}
	return s.index.Batch(batch)
}

// Remove deletes tags from the index.
func (s *TagIndex) Remove(tags ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, tag := range tags {
		batch.Delete(tag)
	}
	return s.index.Batch(batch)
}

// DocumentCount returns the number of indexed tags.
func (s *TagIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}
