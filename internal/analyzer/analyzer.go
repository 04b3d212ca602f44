// Package analyzer turns an album record set into tag frequency, co-occurrence
// graph, centrality, hierarchy, and cluster views.
package analyzer

import (
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/listenupapp/tagcurator/internal/domain"
	"github.com/listenupapp/tagcurator/internal/normalize"
)

// BuildReport summarizes one rebuild.
type BuildReport struct {
	Records         int    `json:"records"`
	Albums          int    `json:"albums"`
	Tags            int    `json:"tags"`
	Edges           int    `json:"edges"`
	Skipped         int    `json:"skipped"`
	DuplicateAlbums int    `json:"duplicate_albums"`
	Version         uint64 `json:"version"`
	CorpusVersion   uint64 `json:"corpus_version"`
}

// snapshot is the immutable derived state of one build.
type snapshot struct {
	graph     *Graph
	tagAlbums map[string]map[string]struct{}
	albumTags map[string][]string
	report    BuildReport

	statsOnce sync.Once
	stats     map[string]domain.TagStats
}

// Analyzer holds the derived views of the most recent build.
//
// Thread safety: all public methods are safe for concurrent use. A rebuild
// constructs the new state off to the side and swaps it in under the lock,
// so readers never observe a partially built graph.
type Analyzer struct {
	normalizer normalize.Normalizer
	logger     *slog.Logger

	mu      sync.RWMutex
	snap    *snapshot
	version uint64
}

// New creates an analyzer with an empty graph.
// A nil logger discards output.
func New(n normalize.Normalizer, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Analyzer{
		normalizer: n,
		logger:     logger,
		snap:       emptySnapshot(),
	}
}

func emptySnapshot() *snapshot {
	return &snapshot{
		graph:     NewGraph(),
		tagAlbums: make(map[string]map[string]struct{}),
		albumTags: make(map[string][]string),
	}
}

// Rebuild normalizes every record, recounts frequencies, and rebuilds the
// co-occurrence graph from scratch. Malformed records are skipped and counted.
func (a *Analyzer) Rebuild(records []domain.Record, corpusVersion uint64) BuildReport {
	snap := emptySnapshot()
	report := BuildReport{Records: len(records), CorpusVersion: corpusVersion}

	// Per-album canonical tag sets. Duplicate album rows are unioned.
	sets := make(map[string]map[string]struct{}, len(records))
	for _, r := range records {
		if !r.Valid() {
			report.Skipped++
			continue
		}
		set, seen := sets[r.AlbumID]
		if seen {
			report.DuplicateAlbums++
		} else {
			set = make(map[string]struct{}, len(r.Tags))
			sets[r.AlbumID] = set
		}
		for _, raw := range r.Tags {
			for _, tag := range a.normalizer.NormalizeList(raw) {
				set[tag] = struct{}{}
			}
		}
	}

	albumIDs := make([]string, 0, len(sets))
	for id := range sets {
		albumIDs = append(albumIDs, id)
	}
	sort.Strings(albumIDs)

	// Every pair of co-tags on an album updates one edge.
	for _, id := range albumIDs {
		tags := make([]string, 0, len(sets[id]))
		for t := range sets[id] {
			tags = append(tags, t)
		}
		sort.Strings(tags)
		snap.albumTags[id] = tags

		for i, t := range tags {
			snap.graph.AddNode(t, 1)
			albums, ok := snap.tagAlbums[t]
			if !ok {
				albums = make(map[string]struct{})
				snap.tagAlbums[t] = albums
			}
			albums[id] = struct{}{}
			for _, u := range tags[i+1:] {
				snap.graph.AddEdge(t, u, 1)
			}
		}
	}

	report.Albums = len(albumIDs)
	report.Tags = snap.graph.NodeCount()
	report.Edges = snap.graph.EdgeCount()

	a.mu.Lock()
	a.version++
	report.Version = a.version
	snap.report = report
	a.snap = snap
	a.mu.Unlock()

	a.logger.Debug("tag graph rebuilt",
		"version", report.Version,
		"corpus_version", corpusVersion,
		"albums", report.Albums,
		"tags", report.Tags,
		"edges", report.Edges,
		"skipped", report.Skipped,
	)
	if report.Skipped > 0 {
		a.logger.Warn("skipped malformed records", "count", report.Skipped)
	}

	return report
}

func (a *Analyzer) current() *snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// Version returns the build counter, bumped on every rebuild.
func (a *Analyzer) Version() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.version
}

// CorpusVersion returns the corpus version the current build was made from.
func (a *Analyzer) CorpusVersion() uint64 {
	return a.current().report.CorpusVersion
}

// Report returns the report of the current build.
func (a *Analyzer) Report() BuildReport {
	return a.current().report
}

// Normalize exposes the analyzer's normalizer for callers that need to
// address tags by raw input.
func (a *Analyzer) Normalize(raw string) string {
	return a.normalizer.Normalize(raw)
}

// NormalizeList exposes the analyzer's list normalizer.
func (a *Analyzer) NormalizeList(raw string) []string {
	return a.normalizer.NormalizeList(raw)
}

// Graph returns the current co-occurrence graph. It must not be mutated.
func (a *Analyzer) Graph() *Graph {
	return a.current().graph
}

// Frequency returns the number of albums carrying tag (0 when unknown).
func (a *Analyzer) Frequency(tag string) int {
	return a.current().graph.NodeWeight(tag)
}

// HasTag reports whether tag occurs in the corpus.
func (a *Analyzer) HasTag(tag string) bool {
	return a.current().graph.HasNode(tag)
}

// Tags returns every known tag in sorted order.
func (a *Analyzer) Tags() []string {
	return a.current().graph.Nodes()
}

// Albums returns the sorted album IDs carrying tag (empty when unknown).
func (a *Analyzer) Albums(tag string) []string {
	set := a.current().tagAlbums[tag]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AlbumUnion returns the number of distinct albums carrying any of tags.
func (a *Analyzer) AlbumUnion(tags ...string) int {
	snap := a.current()
	seen := make(map[string]struct{})
	for _, t := range tags {
		for id := range snap.tagAlbums[t] {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// SharedAlbums returns |albums(a) ∩ albums(b)| and |albums(a) ∪ albums(b)|.
func (a *Analyzer) SharedAlbums(x, y string) (shared, union int) {
	snap := a.current()
	ax, ay := snap.tagAlbums[x], snap.tagAlbums[y]
	if len(ax) > len(ay) {
		ax, ay = ay, ax
	}
	for id := range ax {
		if _, ok := ay[id]; ok {
			shared++
		}
	}
	return shared, len(ax) + len(ay) - shared
}

// AlbumTags returns the canonical tags of one album (empty when unknown).
func (a *Analyzer) AlbumTags(albumID string) []string {
	tags := a.current().albumTags[albumID]
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

// Neighbors returns the tags co-occurring with tag, sorted.
func (a *Analyzer) Neighbors(tag string) []string {
	return a.current().graph.Neighbors(tag)
}

// EdgeWeight returns the number of albums carrying both tags.
func (a *Analyzer) EdgeWeight(x, y string) int {
	return a.current().graph.Weight(x, y)
}

// TopTags returns the n most frequent tags (all when n <= 0), ties by name.
func (a *Analyzer) TopTags(n int) []domain.TagCount {
	g := a.current().graph
	out := make([]domain.TagCount, 0, g.NodeCount())
	for _, t := range g.Nodes() {
		out = append(out, domain.TagCount{Tag: t, Frequency: g.NodeWeight(t)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency > out[j].Frequency
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// FindSimilarTags returns graph neighbors of tag whose overlap coefficient
// weight / min(freq(tag), freq(neighbor)) is at least threshold, highest
// first (ties by name). Unknown or isolated tags yield an empty result.
func (a *Analyzer) FindSimilarTags(tag string, threshold float64) []domain.ScoredTag {
	g := a.current().graph
	out := make([]domain.ScoredTag, 0)
	fa := g.NodeWeight(tag)
	if fa == 0 {
		return out
	}

	for _, n := range g.Neighbors(tag) {
		denom := min(fa, g.NodeWeight(n))
		if denom == 0 {
			continue
		}
		score := clamp01(float64(g.Weight(tag, n)) / float64(denom))
		if score >= threshold {
			out = append(out, domain.ScoredTag{Tag: n, Score: score})
		}
	}

	// Neighbors are already sorted by name, so a stable sort keeps name ties ordered.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
