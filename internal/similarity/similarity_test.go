package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcurator/internal/analyzer"
	"github.com/listenupapp/tagcurator/internal/domain"
	"github.com/listenupapp/tagcurator/internal/normalize"
)

func testAnalyzer(t *testing.T) *analyzer.Analyzer {
	t.Helper()
	a := analyzer.New(normalize.Default(), nil)
	a.Rebuild([]domain.Record{
		{AlbumID: "1", Tags: []string{"shoegaze", "dream pop", "noise pop"}},
		{AlbumID: "2", Tags: []string{"shoegaze", "dream pop"}},
		{AlbumID: "3", Tags: []string{"shoegaze", "noise pop"}},
		{AlbumID: "4", Tags: []string{"shoegazer", "dream pop"}},
		{AlbumID: "5", Tags: []string{"black metal", "atmospheric"}},
		{AlbumID: "6", Tags: []string{"jazz"}},
	}, 1)
	return a
}

func TestLexical(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "rock", "rock", 1},
		{"one insertion", "shoegaze", "shoegazer", 1 - 1.0/9.0},
		{"disjoint", "abc", "xyz", 0},
		{"runes not bytes", "café", "cafe", 0.75},
		{"both empty", "", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Lexical(tt.a, tt.b), 1e-9)
		})
	}
}

func TestWeights_Normalized(t *testing.T) {
	w := Weights{Lexical: 2, Cooccurrence: 1, Structural: 1}.normalized()
	assert.InDelta(t, 0.5, w.Lexical, 1e-9)
	assert.InDelta(t, 0.25, w.Cooccurrence, 1e-9)
	assert.InDelta(t, 1.0, w.Lexical+w.Cooccurrence+w.Structural, 1e-9)

	fallback := Weights{}.normalized()
	assert.Equal(t, DefaultWeights().normalized(), fallback)

	negative := Weights{Lexical: -1, Cooccurrence: 2}.normalized()
	assert.Equal(t, DefaultWeights().normalized(), negative)
}

func TestSimilarity_Reflexive(t *testing.T) {
	e := New(testAnalyzer(t), DefaultWeights(), nil)
	assert.Equal(t, 1.0, e.Similarity("shoegaze", "shoegaze"))
	assert.Equal(t, 1.0, e.Similarity("unknown", "unknown"))
}

func TestSimilarity_BoundsAndSymmetry(t *testing.T) {
	a := testAnalyzer(t)
	e := New(a, DefaultWeights(), nil)

	tags := a.Tags()
	for _, x := range tags {
		for _, y := range tags {
			s := e.Similarity(x, y)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
			assert.InDelta(t, s, e.Similarity(y, x), 1e-12)
		}
	}
}

func TestBreakdown(t *testing.T) {
	a := testAnalyzer(t)
	e := New(a, Weights{Lexical: 1, Cooccurrence: 1, Structural: 1}, nil)

	b := e.Breakdown("shoegaze", "shoegazer")
	assert.InDelta(t, 1-1.0/9.0, b.Lexical, 1e-9)
	// Albums {1,2,3} and {4} are disjoint.
	assert.InDelta(t, 0, b.Cooccurrence, 1e-9)
	// Neighbors {dream pop, noise pop} and {dream pop}.
	assert.InDelta(t, 0.5, b.Structural, 1e-9)
	assert.InDelta(t, (b.Lexical+b.Cooccurrence+b.Structural)/3, b.Combined, 1e-9)

	co := e.Breakdown("shoegaze", "dream pop")
	// Albums {1,2,3} and {1,2,4}.
	assert.InDelta(t, 0.5, co.Cooccurrence, 1e-9)
}

func TestSimilarity_UnrelatedIsLow(t *testing.T) {
	e := New(testAnalyzer(t), DefaultWeights(), nil)
	b := e.Breakdown("jazz", "atmospheric")
	assert.Zero(t, b.Cooccurrence)
	assert.Zero(t, b.Structural)
	assert.Less(t, b.Combined, 0.3)
}

func TestCalculateAll(t *testing.T) {
	a := testAnalyzer(t)
	e := New(a, DefaultWeights(), nil)

	all := e.CalculateAll(nil)
	n := len(a.Tags())
	assert.Len(t, all, n*(n-1)/2)
	assert.Equal(t, len(all), e.CacheSize())

	subset := e.CalculateAll([]string{"shoegazer", "shoegaze", "shoegaze"})
	require.Len(t, subset, 1)
	pair := domain.NewTagPair("shoegazer", "shoegaze")
	assert.InDelta(t, e.Similarity("shoegaze", "shoegazer"), subset[pair], 1e-12)
}

func TestCache_InvalidatedOnRebuild(t *testing.T) {
	a := testAnalyzer(t)
	e := New(a, DefaultWeights(), nil)

	before := e.Similarity("shoegaze", "dream pop")
	require.Equal(t, 1, e.CacheSize())

	a.Rebuild([]domain.Record{
		{AlbumID: "1", Tags: []string{"shoegaze", "dream pop"}},
		{AlbumID: "2", Tags: []string{"dream pop"}},
	}, 2)

	assert.Zero(t, e.CacheSize())
	after := e.Similarity("shoegaze", "dream pop")
	assert.NotEqual(t, before, after)

	w := e.Weights()
	want := w.Lexical*Lexical("shoegaze", "dream pop") + w.Cooccurrence*0.5
	assert.InDelta(t, want, after, 1e-9)
}

func TestInvalidate(t *testing.T) {
	e := New(testAnalyzer(t), DefaultWeights(), nil)
	e.CalculateAll(nil)
	require.Positive(t, e.CacheSize())

	e.Invalidate()
	assert.Zero(t, e.CacheSize())
}
