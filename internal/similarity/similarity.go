// Package similarity scores tag pairs by combining lexical, co-occurrence and
// graph-structural evidence from an analyzer build.
package similarity

import (
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/listenupapp/tagcurator/internal/domain"
)

// TagGraph is the slice of the analyzer the engine reads from.
type TagGraph interface {
	Version() uint64
	Tags() []string
	SharedAlbums(a, b string) (shared, union int)
	Neighbors(tag string) []string
}

// Weights sets the contribution of each sub-score to the combined score.
type Weights struct {
	Lexical      float64 `json:"lexical" validate:"gte=0"`
	Cooccurrence float64 `json:"cooccurrence" validate:"gte=0"`
	Structural   float64 `json:"structural" validate:"gte=0"`
}

// DefaultWeights favour spelling slightly over usage.
func DefaultWeights() Weights {
	return Weights{Lexical: 0.4, Cooccurrence: 0.3, Structural: 0.3}
}

// normalized scales w to sum to 1. All-zero or negative weights fall back
// to the defaults.
func (w Weights) normalized() Weights {
	if w.Lexical < 0 || w.Cooccurrence < 0 || w.Structural < 0 {
		return DefaultWeights().normalized()
	}
	sum := w.Lexical + w.Cooccurrence + w.Structural
	if sum <= 0 {
		return DefaultWeights().normalized()
	}
	return Weights{
		Lexical:      w.Lexical / sum,
		Cooccurrence: w.Cooccurrence / sum,
		Structural:   w.Structural / sum,
	}
}

// Engine computes pairwise tag similarity.
//
// Scores are cached per pair. The cache is tagged with the analyzer version it
// was filled from and dropped as soon as that version moves on, so a score is
// never served from an older graph.
type Engine struct {
	graph   TagGraph
	weights Weights
	logger  *slog.Logger

	mu           sync.Mutex
	cache        map[domain.TagPair]float64
	cacheVersion uint64
}

// New creates an engine over graph. Weights are fixed for the engine's
// lifetime. A nil logger discards output.
func New(graph TagGraph, w Weights, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		graph:   graph,
		weights: w.normalized(),
		logger:  logger,
		cache:   make(map[domain.TagPair]float64),
	}
}

// Weights returns the normalized weights in use.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Similarity returns the combined score of a and b in [0, 1].
// Similarity(a, a) is 1 for any tag.
func (e *Engine) Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	pair := domain.NewTagPair(a, b)

	e.mu.Lock()
	e.syncVersionLocked()
	if s, ok := e.cache[pair]; ok {
		e.mu.Unlock()
		return s
	}
	version := e.cacheVersion
	e.mu.Unlock()

	s := e.Breakdown(a, b).Combined

	e.mu.Lock()
	e.syncVersionLocked()
	if e.cacheVersion == version {
		e.cache[pair] = s
	}
	e.mu.Unlock()
	return s
}

// Breakdown returns the three sub-scores and the combined score of a and b.
func (e *Engine) Breakdown(a, b string) domain.SimilarityBreakdown {
	if a == b {
		return domain.SimilarityBreakdown{Lexical: 1, Cooccurrence: 1, Structural: 1, Combined: 1}
	}

	lex := clamp01(Lexical(a, b))
	co := clamp01(e.cooccurrence(a, b))
	st := clamp01(e.structural(a, b))

	return domain.SimilarityBreakdown{
		Lexical:      lex,
		Cooccurrence: co,
		Structural:   st,
		Combined: clamp01(
			e.weights.Lexical*lex +
				e.weights.Cooccurrence*co +
				e.weights.Structural*st,
		),
	}
}

// CalculateAll scores every pair drawn from tags (the whole tag universe when
// tags is nil) and returns the matrix keyed by ordered pair.
func (e *Engine) CalculateAll(tags []string) map[domain.TagPair]float64 {
	if tags == nil {
		tags = e.graph.Tags()
	} else {
		tags = dedupe(tags)
	}

	pairs := make([]domain.TagPair, 0, len(tags)*(len(tags)-1)/2)
	for i, a := range tags {
		for _, b := range tags[i+1:] {
			pairs = append(pairs, domain.NewTagPair(a, b))
		}
	}
	return e.CalculatePairs(pairs)
}

// CalculatePairs scores an explicit candidate set.
func (e *Engine) CalculatePairs(pairs []domain.TagPair) map[domain.TagPair]float64 {
	out := make(map[domain.TagPair]float64, len(pairs))

	e.mu.Lock()
	e.syncVersionLocked()
	var missing []domain.TagPair
	for _, p := range pairs {
		if p.A == p.B {
			out[p] = 1
			continue
		}
		if s, ok := e.cache[p]; ok {
			out[p] = s
			continue
		}
		missing = append(missing, p)
	}
	version := e.cacheVersion
	e.mu.Unlock()

	computed := make(map[domain.TagPair]float64, len(missing))
	for _, p := range missing {
		computed[p] = e.Breakdown(p.A, p.B).Combined
	}

	e.mu.Lock()
	e.syncVersionLocked()
	for p, s := range computed {
		// A rebuild during the batch makes these scores stale for the cache.
		if e.cacheVersion == version {
			e.cache[p] = s
		}
		out[p] = s
	}
	e.mu.Unlock()

	e.logger.Debug("similarity batch",
		"pairs", len(pairs),
		"computed", len(missing),
		"graph_version", e.graph.Version(),
	)
	return out
}

// Invalidate drops every cached score.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.cache)
	e.cacheVersion = e.graph.Version()
}

// CacheSize returns the number of cached pairs.
func (e *Engine) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.syncVersionLocked()
	return len(e.cache)
}

func (e *Engine) syncVersionLocked() {
	if v := e.graph.Version(); v != e.cacheVersion {
		clear(e.cache)
		e.cacheVersion = v
	}
}

// cooccurrence is the Jaccard index of the album sets.
func (e *Engine) cooccurrence(a, b string) float64 {
	shared, union := e.graph.SharedAlbums(a, b)
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// structural is the Jaccard index of the neighbor sets, ignoring the edge
// between a and b themselves.
func (e *Engine) structural(a, b string) float64 {
	na := e.graph.Neighbors(a)
	nb := e.graph.Neighbors(b)

	set := make(map[string]struct{}, len(na))
	for _, n := range na {
		if n != b {
			set[n] = struct{}{}
		}
	}
	var shared, onlyB int
	for _, n := range nb {
		if n == a {
			continue
		}
		if _, ok := set[n]; ok {
			shared++
		} else {
			onlyB++
		}
	}
	union := len(set) + onlyB
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// Lexical returns 1 - levenshtein(a, b) / max(len(a), len(b)) over runes.
func Lexical(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1
	}
	return 1.0 - float64(levenshteinDistance(ra, rb))/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two rune slices.
func levenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
