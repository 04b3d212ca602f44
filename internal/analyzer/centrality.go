package analyzer

import "github.com/listenupapp/tagcurator/internal/domain"

// ComputeStatistics returns frequency, degree centrality and betweenness
// centrality for every tag. The result is computed once per build and copied
// out on every call.
func (a *Analyzer) ComputeStatistics() map[string]domain.TagStats {
	snap := a.current()
	snap.statsOnce.Do(func() {
		snap.stats = computeStats(snap.graph)
	})

	out := make(map[string]domain.TagStats, len(snap.stats))
	for k, v := range snap.stats {
		out[k] = v
	}
	return out
}

// Statistics returns the stats of a single tag (zero value when unknown).
func (a *Analyzer) Statistics(tag string) domain.TagStats {
	snap := a.current()
	snap.statsOnce.Do(func() {
		snap.stats = computeStats(snap.graph)
	})
	return snap.stats[tag]
}

func computeStats(g *Graph) map[string]domain.TagStats {
	nodes := g.Nodes()
	n := len(nodes)
	between := betweenness(g, nodes)

	stats := make(map[string]domain.TagStats, n)
	for i, tag := range nodes {
		var degree float64
		if n > 1 {
			degree = float64(g.Degree(tag)) / float64(n-1)
		}
		stats[tag] = domain.TagStats{
			Frequency:             g.NodeWeight(tag),
			DegreeCentrality:      degree,
			BetweennessCentrality: between[i],
		}
	}
	return stats
}

// betweenness computes normalized betweenness centrality with Brandes'
// algorithm over the unweighted graph. Index i of the result belongs to nodes[i].
func betweenness(g *Graph, nodes []string) []float64 {
	n := len(nodes)
	cb := make([]float64, n)
	if n <= 2 {
		return cb
	}

	index := make(map[string]int, n)
	for i, t := range nodes {
		index[t] = i
	}
	adj := make([][]int, n)
	for i, t := range nodes {
		nbrs := g.Neighbors(t)
		adj[i] = make([]int, len(nbrs))
		for j, nb := range nbrs {
			adj[i][j] = index[nb]
		}
	}

	sigma := make([]float64, n)
	dist := make([]int, n)
	delta := make([]float64, n)
	preds := make([][]int, n)
	stack := make([]int, 0, n)
	queue := make([]int, 0, n)

	for s := 0; s < n; s++ {
		for i := range n {
			sigma[i] = 0
			dist[i] = -1
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		sigma[s] = 1
		dist[s] = 0
		stack = stack[:0]
		queue = append(queue[:0], s)

		for head := 0; head < len(queue); head++ {
			v := queue[head]
			stack = append(stack, v)
			for _, w := range adj[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				cb[w] += delta[w]
			}
		}
	}

	// Each pair was counted from both endpoints; normalize by the number of
	// ordered pairs excluding the node itself.
	scale := 1 / float64((n-1)*(n-2))
	for i := range cb {
		cb[i] *= scale
	}
	return cb
}
