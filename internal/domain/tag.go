package domain

// TagStats holds per-tag structural statistics from one analyzer computation.
// Centrality values are only comparable within the same computation.
type TagStats struct {
	Frequency             int     `json:"frequency"`
	DegreeCentrality      float64 `json:"degree_centrality"`
	BetweennessCentrality float64 `json:"betweenness_centrality"`
}

// ScoredTag is a tag with a score attached, e.g. a graph neighbor and its overlap.
type ScoredTag struct {
	Tag   string  `json:"tag"`
	Score float64 `json:"score"`
}

// TagCount is a tag with its album frequency.
type TagCount struct {
	Tag       string `json:"tag"`
	Frequency int    `json:"frequency"`
}

// TagPair is an unordered pair of canonical tags, stored with A <= B.
type TagPair struct {
	A string
	B string
}

// NewTagPair builds the ordered representation of {a, b}.
func NewTagPair(a, b string) TagPair {
	if b < a {
		a, b = b, a
	}
	return TagPair{A: a, B: b}
}

// HierarchyEdge is an advisory parent -> child relation inferred from tag tokens.
// "death metal" is the parent of "melodic death metal".
type HierarchyEdge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// SimilarityBreakdown exposes the evidence behind a similarity score.
type SimilarityBreakdown struct {
	Lexical      float64 `json:"lexical"`
	Cooccurrence float64 `json:"cooccurrence"`
	Structural   float64 `json:"structural"`
	Combined     float64 `json:"combined"`
}
