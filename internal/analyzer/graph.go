package analyzer

import "sort"

// Graph is an undirected, weighted co-occurrence graph held as an adjacency map.
// Node weight is tag frequency; edge weight is the number of shared albums.
// There are no self-loops, and weight(a, b) == weight(b, a) always holds
// because every edge update writes both directions.
//
// A Graph handed out by the Analyzer is never mutated afterwards.
type Graph struct {
	nodes map[string]int
	adj   map[string]map[string]int
	edges int
	total int
}

// Edge is one undirected edge, reported with A < B.
type Edge struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Weight int    `json:"weight"`
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]int),
		adj:   make(map[string]map[string]int),
	}
}

// AddNode adds weight to a node, creating it if needed.
func (g *Graph) AddNode(tag string, weight int) {
	g.nodes[tag] += weight
	if _, ok := g.adj[tag]; !ok {
		g.adj[tag] = make(map[string]int)
	}
}

// AddEdge adds delta to the (a, b) edge in both directions.
// Self-loops are ignored.
func (g *Graph) AddEdge(a, b string, delta int) {
	if a == b || delta == 0 {
		return
	}
	if _, ok := g.nodes[a]; !ok {
		g.AddNode(a, 0)
	}
	if _, ok := g.nodes[b]; !ok {
		g.AddNode(b, 0)
	}
	if _, ok := g.adj[a][b]; !ok {
		g.edges++
	}
	g.adj[a][b] += delta
	g.adj[b][a] += delta
	g.total += delta
}

// HasNode reports whether tag is in the graph.
func (g *Graph) HasNode(tag string) bool {
	_, ok := g.nodes[tag]
	return ok
}

// NodeWeight returns the frequency of tag (0 when unknown).
func (g *Graph) NodeWeight(tag string) int {
	return g.nodes[tag]
}

// Weight returns the shared-album count of (a, b) (0 when there is no edge).
func (g *Graph) Weight(a, b string) int {
	return g.adj[a][b]
}

// Degree returns the number of distinct neighbors of tag.
func (g *Graph) Degree(tag string) int {
	return len(g.adj[tag])
}

// Neighbors returns the neighbors of tag in sorted order.
func (g *Graph) Neighbors(tag string) []string {
	nbrs := make([]string, 0, len(g.adj[tag]))
	for n := range g.adj[tag] {
		nbrs = append(nbrs, n)
	}
	sort.Strings(nbrs)
	return nbrs
}

// EachNeighbor calls fn for every neighbor of tag in unspecified order.
func (g *Graph) EachNeighbor(tag string, fn func(neighbor string, weight int)) {
	for n, w := range g.adj[tag] {
		fn(n, w)
	}
}

// Nodes returns all tags in sorted order.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// TotalWeight returns the sum of all undirected edge weights.
func (g *Graph) TotalWeight() int {
	return g.total
}

// Edges returns every undirected edge once, sorted by (A, B).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for a, nbrs := range g.adj {
		for b, w := range nbrs {
			if a < b {
				out = append(out, Edge{A: a, B: b, Weight: w})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// RelationshipStrength returns weight(from, to) / frequency(from) in [0, 1]:
// the share of from's albums that also carry to.
func (g *Graph) RelationshipStrength(from, to string) float64 {
	f := g.nodes[from]
	if f == 0 {
		return 0
	}
	return clamp01(float64(g.adj[from][to]) / float64(f))
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
