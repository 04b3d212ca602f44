// Package consolidator turns rule and similarity evidence into reviewable tag
// merges: candidates, conflicts, previews, a pending queue, and a single
// commit that rewrites the corpus and appends to the merge history.
package consolidator

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/listenupapp/tagcurator/internal/analyzer"
	"github.com/listenupapp/tagcurator/internal/corpus"
	"github.com/listenupapp/tagcurator/internal/domain"
	"github.com/listenupapp/tagcurator/internal/errors"
	"github.com/listenupapp/tagcurator/internal/similarity"
	"github.com/listenupapp/tagcurator/internal/validation"
)

// Config holds the thresholds used for candidate identification and
// conflict detection.
type Config struct {
	// MergeThreshold is the minimum similarity for a similarity-sourced proposal.
	MergeThreshold float64 `json:"merge_threshold" validate:"gte=0,lte=1"`
	// ExhaustiveScanLimit bounds the tag count for which every pair is scored.
	// Larger vocabularies only score pruned candidate pairs. Zero disables pruning.
	ExhaustiveScanLimit int `json:"exhaustive_scan_limit" validate:"gte=0"`

	FrequencyMismatchRatio float64 `json:"frequency_mismatch_ratio" validate:"gte=1"`
	StrongRelationship     float64 `json:"strong_relationship" validate:"gte=0,lte=1"`
	SharedRelationship     float64 `json:"shared_relationship" validate:"gte=0,lte=1"`
	MinRelationshipWeight  int     `json:"min_relationship_weight" validate:"gte=1"`
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MergeThreshold:         0.6,
		ExhaustiveScanLimit:    2000,
		FrequencyMismatchRatio: 2.0,
		StrongRelationship:     0.5,
		SharedRelationship:     0.1,
		MinRelationshipWeight:  2,
	}
}

// MergeRecorder persists the outcome of a batch apply. Records and history
// entries must be written atomically: either both land or neither does.
type MergeRecorder interface {
	RecordMerge(ctx context.Context, records []domain.Record, entries []domain.MergeHistoryEntry) error
}

// NoopRecorder discards merge outcomes. Used when the engine runs purely in memory.
type NoopRecorder struct{}

// RecordMerge implements MergeRecorder.
func (NoopRecorder) RecordMerge(context.Context, []domain.Record, []domain.MergeHistoryEntry) error {
	return nil
}

// TagIndex is a searchable index of tag names used to prune similarity
// candidates on large vocabularies.
type TagIndex interface {
	Rebuild(tags []string) error
	Add(tags ...string) error
	Remove(tags ...string) error
	Fuzzy(tag string, fuzziness, limit int) ([]string, error)
}

// Option configures a Consolidator.
type Option func(*Consolidator)

// WithRecorder persists applied merges through r.
func WithRecorder(r MergeRecorder) Option {
	return func(c *Consolidator) { c.recorder = r }
}

// WithTagIndex enables fuzzy candidate pruning.
func WithTagIndex(idx TagIndex) Option {
	return func(c *Consolidator) { c.index = idx }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Consolidator) { c.logger = l }
}

// WithClock overrides the time source for queue and history timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Consolidator) { c.now = now }
}

// WithValidator sets the validator used for rules and merge requests.
func WithValidator(v *validation.Validator) Option {
	return func(c *Consolidator) { c.validator = v }
}

// Consolidator owns the rule list, the pending merge queue, the rejected
// pairs, and the merge history.
//
// Thread safety: all public methods are safe for concurrent use. Mutations
// are serialized by mu; ApplyPendingMerges holds it for the whole commit.
type Consolidator struct {
	corpus     *corpus.Corpus
	analyzer   *analyzer.Analyzer
	similarity *similarity.Engine
	cfg        Config

	recorder  MergeRecorder
	index     TagIndex
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	rules    []domain.ConsolidationRule
	pending  []domain.PendingMerge
	rejected map[domain.TagPair]struct{}
	history  []domain.MergeHistoryEntry
}

// New creates a consolidator over a corpus, the analyzer built from it, and a
// similarity engine reading that analyzer.
func New(c *corpus.Corpus, a *analyzer.Analyzer, s *similarity.Engine, cfg Config, opts ...Option) *Consolidator {
	con := &Consolidator{
		corpus:     c,
		analyzer:   a,
		similarity: s,
		cfg:        cfg,
		recorder:   NoopRecorder{},
		rejected:   make(map[domain.TagPair]struct{}),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(con)
	}
	if con.logger == nil {
		con.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if con.validator == nil {
		con.validator = validation.New()
	}
	if con.recorder == nil {
		con.recorder = NoopRecorder{}
	}
	return con
}

// Sync rebuilds the analyzer from the current corpus and drops derived
// caches. Call it after mutating the corpus outside the consolidator.
func (c *Consolidator) Sync() analyzer.BuildReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, version := c.corpus.Snapshot()
	report := c.analyzer.Rebuild(records, version)
	c.similarity.Invalidate()
	c.refreshIndex()
	return report
}

func (c *Consolidator) refreshIndex() {
	if c.index == nil {
		return
	}
	if err := c.index.Rebuild(c.analyzer.Tags()); err != nil {
		c.logger.Warn("failed to refresh tag index", "error", err)
	}
}

// updateIndex drops absorbed tags that no album carries any more and adds
// primaries that were new to the vocabulary.
func (c *Consolidator) updateIndex(merges []domain.PendingMerge) {
	if c.index == nil {
		return
	}
	var gone, added []string
	for _, m := range merges {
		if c.analyzer.HasTag(m.Primary) {
			added = append(added, m.Primary)
		}
		for _, t := range m.Tags {
			if !c.analyzer.HasTag(t) {
				gone = append(gone, t)
			}
		}
	}
	if err := c.index.Remove(gone...); err != nil {
		c.logger.Warn("failed to remove merged tags from index", "tags", gone, "error", err)
	}
	if err := c.index.Add(added...); err != nil {
		c.logger.Warn("failed to add merge primaries to index", "tags", added, "error", err)
	}
}

// AddRule appends a consolidation rule. The pattern is a regular expression
// matched case-insensitively against the whole canonical tag; a pattern with
// no metacharacters is a literal tag and is normalized like one. The
// replacement is normalized.
func (c *Consolidator) AddRule(pattern, replacement string, minSimilarity float64) error {
	pattern = strings.TrimSpace(pattern)
	if regexp.QuoteMeta(pattern) == pattern {
		pattern = c.analyzer.Normalize(pattern)
	}
	rule := domain.ConsolidationRule{
		Pattern:       pattern,
		Replacement:   c.analyzer.Normalize(replacement),
		MinSimilarity: minSimilarity,
	}
	if err := c.validator.Validate(rule); err != nil {
		return err
	}
	if err := rule.Compile(); err != nil {
		return errors.Wrapf(err, errors.CodeValidation, "invalid rule pattern %q", pattern)
	}

	c.mu.Lock()
	c.rules = append(c.rules, rule)
	count := len(c.rules)
	c.mu.Unlock()

	c.logger.Debug("consolidation rule added",
		"pattern", rule.Pattern,
		"replacement", rule.Replacement,
		"min_similarity", rule.MinSimilarity,
		"rules", count,
	)
	return nil
}

// LoadRules appends rules in order, stopping at the first invalid one.
func (c *Consolidator) LoadRules(rules []domain.ConsolidationRule) error {
	for i, r := range rules {
		if err := c.AddRule(r.Pattern, r.Replacement, r.MinSimilarity); err != nil {
			return errors.Wrapf(err, errors.CodeOf(err), "rule %d", i+1)
		}
	}
	return nil
}

// Rules returns the rules in evaluation order.
func (c *Consolidator) Rules() []domain.ConsolidationRule {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ConsolidationRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// LoadHistory seeds the history with entries persisted by an earlier run.
// It is meant for startup, before any merge is applied.
func (c *Consolidator) LoadHistory(entries []domain.MergeHistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		c.history = append(c.history, cloneEntry(e))
	}
}

// MergeHistory returns every applied merge, oldest first.
func (c *Consolidator) MergeHistory() []domain.MergeHistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.MergeHistoryEntry, len(c.history))
	for i, e := range c.history {
		out[i] = cloneEntry(e)
	}
	return out
}

// normalizeRequest canonicalizes a primary and its absorbed tags, dropping
// duplicates and the primary itself from the absorbed list.
func (c *Consolidator) normalizeRequest(primary string, tags []string) (string, []string, error) {
	req := domain.MergeRequest{Primary: c.analyzer.Normalize(primary), Tags: make([]string, 0, len(tags))}
	seen := map[string]struct{}{req.Primary: {}}
	for _, raw := range tags {
		t := c.analyzer.Normalize(raw)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		req.Tags = append(req.Tags, t)
	}
	if err := c.validator.Validate(req); err != nil {
		return "", nil, err
	}
	return req.Primary, req.Tags, nil
}

func cloneEntry(e domain.MergeHistoryEntry) domain.MergeHistoryEntry {
	e.Tags = append([]string(nil), e.Tags...)
	return e
}

func clonePending(m domain.PendingMerge) domain.PendingMerge {
	m.Tags = append([]string(nil), m.Tags...)
	return m
}
