package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcurator/internal/domain"
	"github.com/listenupapp/tagcurator/internal/normalize"
)

func rec(id string, tags ...string) domain.Record {
	if tags == nil {
		tags = []string{}
	}
	return domain.Record{AlbumID: id, Tags: tags}
}

func build(t *testing.T, records ...domain.Record) *Analyzer {
	t.Helper()
	a := New(normalize.Default(), nil)
	a.Rebuild(records, 1)
	return a
}

func progMetalCorpus() []domain.Record {
	return []domain.Record{
		rec("a1", "Progressive Metal", "Djent"),
		rec("a2", "progressive metal", "Metal"),
		rec("a3", "prog metal", "Metal"),
	}
}

func TestRebuild_Frequencies(t *testing.T) {
	a := build(t, progMetalCorpus()...)

	assert.Equal(t, 2, a.Frequency("progressive metal"))
	assert.Equal(t, 1, a.Frequency("prog metal"))
	assert.Equal(t, 2, a.Frequency("metal"))
	assert.Equal(t, 1, a.Frequency("djent"))
	assert.Equal(t, 0, a.Frequency("jazz"))

	report := a.Report()
	assert.Equal(t, 3, report.Albums)
	assert.Equal(t, 4, report.Tags)
	assert.Equal(t, uint64(1), report.Version)
	assert.Equal(t, uint64(1), report.CorpusVersion)
}

func TestRebuild_GraphIsSymmetric(t *testing.T) {
	a := build(t, progMetalCorpus()...)
	g := a.Graph()

	for _, e := range g.Edges() {
		assert.Equal(t, g.Weight(e.A, e.B), g.Weight(e.B, e.A))
		assert.NotEqual(t, e.A, e.B)
	}
	assert.Equal(t, 1, a.EdgeWeight("progressive metal", "metal"))
	assert.Equal(t, 1, a.EdgeWeight("metal", "prog metal"))
	assert.Equal(t, 0, a.EdgeWeight("djent", "metal"))
}

func TestRebuild_SkipsMalformedAndUnionsDuplicates(t *testing.T) {
	a := build(t,
		rec("a1", "rock"),
		domain.Record{AlbumID: "a2"},
		domain.Record{Tags: []string{"pop"}},
		rec("a1", "indie"),
		rec("a3"),
	)

	report := a.Report()
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.DuplicateAlbums)
	assert.Equal(t, []string{"indie", "rock"}, a.AlbumTags("a1"))
	assert.Equal(t, 1, a.EdgeWeight("rock", "indie"))
	assert.Empty(t, a.AlbumTags("a3"))
}

func TestRebuild_DuplicateTagsOnAlbumCountOnce(t *testing.T) {
	a := build(t, rec("a1", "Rock", "rock", " ROCK "))
	assert.Equal(t, 1, a.Frequency("rock"))
}

func TestRebuild_VersionAdvances(t *testing.T) {
	a := New(normalize.Default(), nil)
	assert.Equal(t, uint64(0), a.Version())

	a.Rebuild([]domain.Record{rec("a1", "rock")}, 4)
	a.Rebuild([]domain.Record{rec("a1", "pop")}, 5)

	assert.Equal(t, uint64(2), a.Version())
	assert.Equal(t, uint64(5), a.CorpusVersion())
	assert.False(t, a.HasTag("rock"))
	assert.True(t, a.HasTag("pop"))
}

func TestComputeStatistics_Star(t *testing.T) {
	a := build(t,
		rec("a1", "hub", "x"),
		rec("a2", "hub", "y"),
		rec("a3", "hub", "z"),
	)

	stats := a.ComputeStatistics()
	require.Len(t, stats, 4)
	assert.InDelta(t, 1.0, stats["hub"].BetweennessCentrality, 1e-9)
	assert.InDelta(t, 1.0, stats["hub"].DegreeCentrality, 1e-9)
	assert.Equal(t, 3, stats["hub"].Frequency)

	for _, leaf := range []string{"x", "y", "z"} {
		assert.InDelta(t, 0.0, stats[leaf].BetweennessCentrality, 1e-9)
		assert.InDelta(t, 1.0/3.0, stats[leaf].DegreeCentrality, 1e-9)
	}
}

func TestComputeStatistics_Path(t *testing.T) {
	// a - b - c: b sits on the only a..c path.
	a := build(t, rec("1", "a", "b"), rec("2", "b", "c"))

	assert.InDelta(t, 1.0, a.Statistics("b").BetweennessCentrality, 1e-9)
	assert.InDelta(t, 0.0, a.Statistics("a").BetweennessCentrality, 1e-9)
	assert.Equal(t, domain.TagStats{}, a.Statistics("missing"))
}

func TestComputeStatistics_ReturnsCopy(t *testing.T) {
	a := build(t, rec("1", "a", "b"))
	stats := a.ComputeStatistics()
	delete(stats, "a")
	assert.Len(t, a.ComputeStatistics(), 2)
}

func TestFindSimilarTags(t *testing.T) {
	a := build(t,
		rec("1", "shoegaze", "dream pop"),
		rec("2", "shoegaze", "dream pop"),
		rec("3", "shoegaze", "noise"),
		rec("4", "noise"),
		rec("5", "noise"),
	)

	got := a.FindSimilarTags("shoegaze", 0.3)
	require.Len(t, got, 2)
	assert.Equal(t, "dream pop", got[0].Tag)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, "noise", got[1].Tag)
	assert.InDelta(t, 1.0/3.0, got[1].Score, 1e-9)

	assert.Len(t, a.FindSimilarTags("shoegaze", 0.5), 1)

	empty := a.FindSimilarTags("unknown", 0)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestFindSimilarTags_Isolated(t *testing.T) {
	a := build(t, rec("1", "lonely"))
	assert.Empty(t, a.FindSimilarTags("lonely", 0))
}

func TestTopTags(t *testing.T) {
	a := build(t, progMetalCorpus()...)
	top := a.TopTags(2)
	require.Len(t, top, 2)
	assert.Equal(t, domain.TagCount{Tag: "metal", Frequency: 2}, top[0])
	assert.Equal(t, domain.TagCount{Tag: "progressive metal", Frequency: 2}, top[1])
}

func TestSharedAlbums(t *testing.T) {
	a := build(t, progMetalCorpus()...)
	shared, union := a.SharedAlbums("progressive metal", "metal")
	assert.Equal(t, 1, shared)
	assert.Equal(t, 3, union)
	assert.Equal(t, 3, a.AlbumUnion("progressive metal", "prog metal"))
}

func twoTriangles() []domain.Record {
	var records []domain.Record
	for i := range 5 {
		id := string(rune('a' + i))
		records = append(records,
			rec("left-"+id, "ambient", "drone", "dark ambient"),
			rec("right-"+id, "thrash", "speed metal", "heavy metal"),
		)
	}
	records = append(records, rec("bridge", "dark ambient", "heavy metal"))
	return records
}

func TestClusters_TwoCommunities(t *testing.T) {
	a := build(t, twoTriangles()...)

	clusters := a.Clusters(2, 1.0)
	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"ambient", "dark ambient", "drone"}, clusters[0])
	assert.Equal(t, []string{"heavy metal", "speed metal", "thrash"}, clusters[1])
}

func TestClusters_Deterministic(t *testing.T) {
	a := build(t, twoTriangles()...)
	first := a.Clusters(1, 1.0)
	for range 5 {
		assert.Equal(t, first, a.Clusters(1, 1.0))
	}
}

func TestClusters_HighResolutionSplits(t *testing.T) {
	a := build(t, twoTriangles()...)

	assert.Empty(t, a.Clusters(2, 20))
	assert.Len(t, a.Clusters(1, 20), 6)
}

func TestClusters_EveryTagInOneCluster(t *testing.T) {
	a := build(t, append(twoTriangles(), rec("solo", "field recording"))...)

	seen := make(map[string]int)
	for _, members := range a.Clusters(1, 0) {
		for _, m := range members {
			seen[m]++
		}
	}
	assert.Len(t, seen, 7)
	for tag, n := range seen {
		assert.Equal(t, 1, n, tag)
	}
}

func TestClusters_Empty(t *testing.T) {
	a := New(normalize.Default(), nil)
	assert.Empty(t, a.Clusters(1, 1))
}

func TestDetectHierarchies(t *testing.T) {
	a := build(t,
		rec("1", "melodic death metal"),
		rec("2", "death metal"),
		rec("3", "melodic death"),
		rec("4", "metal"),
		rec("5", "post rock"),
	)

	h := a.DetectHierarchies()
	assert.ElementsMatch(t, []domain.HierarchyEdge{
		{Parent: "metal", Child: "death metal"},
		{Parent: "death metal", Child: "melodic death metal"},
		{Parent: "melodic death", Child: "melodic death metal"},
	}, h.Edges)
	assert.Empty(t, h.Dropped)

	assert.Equal(t, []string{"death metal", "melodic death"}, h.Parents("melodic death metal"))
	assert.Equal(t, []string{"death metal", "melodic death", "metal"}, h.Ancestors("melodic death metal"))
	assert.Equal(t, []string{"melodic death metal"}, h.Children("death metal"))
	assert.Contains(t, h.Roots(), "metal")
}

func TestHierarchyReport_AddEdgeRejectsCycles(t *testing.T) {
	a := build(t, rec("1", "black metal"), rec("2", "metal"))
	h := a.DetectHierarchies()
	require.Len(t, h.Edges, 1)

	assert.False(t, h.AddEdge("black metal", "metal"))
	assert.False(t, h.AddEdge("metal", "metal"))
	assert.True(t, h.AddEdge("metal", "black metal"))
	assert.Len(t, h.Edges, 1)
	assert.Len(t, h.Dropped, 2)
}

func TestGraph_RelationshipStrength(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", 4)
	g.AddNode("b", 2)
	g.AddEdge("a", "b", 2)
	g.AddEdge("a", "a", 3)

	assert.InDelta(t, 0.5, g.RelationshipStrength("a", "b"), 1e-9)
	assert.InDelta(t, 1.0, g.RelationshipStrength("b", "a"), 1e-9)
	assert.Zero(t, g.RelationshipStrength("c", "a"))
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, 2, g.TotalWeight())
}
