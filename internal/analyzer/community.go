package analyzer

import (
	"math"
	"sort"
)

const (
	gainEpsilon     = 1e-12
	maxLouvainLevel = 32
	maxLocalPasses  = 100
)

// Clusters partitions the co-occurrence graph into communities with the
// Louvain method and returns those with at least minSize members.
//
// Resolution scales the null-model term: values above 1 favour smaller
// communities, values below 1 larger ones. A non-positive resolution means 1.
// The partition is deterministic: nodes are visited in sorted order and gain
// ties favour staying put, then the lowest community id. Cluster ids are
// assigned by size descending, then by first member name.
func (a *Analyzer) Clusters(minSize int, resolution float64) map[int][]string {
	if minSize < 1 {
		minSize = 1
	}
	if resolution <= 0 {
		resolution = 1
	}

	g := a.current().graph
	nodes := g.Nodes()
	out := make(map[int][]string)
	if len(nodes) == 0 {
		return out
	}

	groups := louvain(g, nodes, resolution)

	kept := make([][]string, 0, len(groups))
	for _, members := range groups {
		if len(members) < minSize {
			continue
		}
		sort.Strings(members)
		kept = append(kept, members)
	}
	sort.Slice(kept, func(i, j int) bool {
		if len(kept[i]) != len(kept[j]) {
			return len(kept[i]) > len(kept[j])
		}
		return kept[i][0] < kept[j][0]
	})
	for id, members := range kept {
		out[id] = members
	}

	a.logger.Debug("clustered tag graph",
		"communities", len(groups),
		"kept", len(kept),
		"min_size", minSize,
		"resolution", resolution,
	)
	return out
}

// level is one aggregation level: node i stands for members[i] original tags.
type level struct {
	adj     []map[int]float64
	loops   []float64
	members [][]string
}

func louvain(g *Graph, nodes []string, resolution float64) [][]string {
	index := make(map[string]int, len(nodes))
	for i, t := range nodes {
		index[t] = i
	}

	lv := level{
		adj:     make([]map[int]float64, len(nodes)),
		loops:   make([]float64, len(nodes)),
		members: make([][]string, len(nodes)),
	}
	for i, t := range nodes {
		lv.adj[i] = make(map[int]float64, g.Degree(t))
		g.EachNeighbor(t, func(n string, w int) {
			lv.adj[i][index[n]] = float64(w)
		})
		lv.members[i] = []string{t}
	}

	if g.TotalWeight() == 0 {
		return lv.members
	}

	for range maxLouvainLevel {
		comm, moved := localMoves(lv, resolution)
		if !moved {
			break
		}
		lv = aggregate(lv, comm)
	}
	return lv.members
}

// localMoves runs the first Louvain phase and returns a compact community
// assignment (ids 0..k-1 in order of first appearance).
func localMoves(lv level, resolution float64) ([]int, bool) {
	n := len(lv.adj)
	k := make([]float64, n)
	var twoM float64
	for i := range n {
		for _, w := range lv.adj[i] {
			k[i] += w
		}
		k[i] += 2 * lv.loops[i]
		twoM += k[i]
	}

	comm := make([]int, n)
	tot := make([]float64, n)
	for i := range n {
		comm[i] = i
		tot[i] = k[i]
	}
	if twoM == 0 {
		return comm, false
	}

	movedAny := false
	links := make(map[int]float64)
	for range maxLocalPasses {
		moved := false
		for i := range n {
			ci := comm[i]
			clear(links)
			for j, w := range lv.adj[i] {
				links[comm[j]] += w
			}

			tot[ci] -= k[i]
			best := ci
			bestGain := links[ci] - resolution*tot[ci]*k[i]/twoM

			candidates := make([]int, 0, len(links))
			for c := range links {
				if c != ci {
					candidates = append(candidates, c)
				}
			}
			sort.Ints(candidates)
			for _, c := range candidates {
				gain := links[c] - resolution*tot[c]*k[i]/twoM
				switch {
				case gain > bestGain+gainEpsilon:
					best, bestGain = c, gain
				case best != ci && math.Abs(gain-bestGain) <= gainEpsilon && c < best:
					best = c
				}
			}

			tot[best] += k[i]
			if best != ci {
				comm[i] = best
				moved = true
			}
		}
		if !moved {
			break
		}
		movedAny = true
	}

	renum := make(map[int]int)
	for i, c := range comm {
		id, ok := renum[c]
		if !ok {
			id = len(renum)
			renum[c] = id
		}
		comm[i] = id
	}
	return comm, movedAny
}

// aggregate collapses every community into a single node. Internal edges
// become a self weight; edges between communities are summed.
func aggregate(lv level, comm []int) level {
	size := 0
	for _, c := range comm {
		size = max(size, c+1)
	}
	next := level{
		adj:     make([]map[int]float64, size),
		loops:   make([]float64, size),
		members: make([][]string, size),
	}
	for c := range size {
		next.adj[c] = make(map[int]float64)
	}

	for i, ci := range comm {
		next.members[ci] = append(next.members[ci], lv.members[i]...)
		next.loops[ci] += lv.loops[i]
		for j, w := range lv.adj[i] {
			cj := comm[j]
			if ci == cj {
				// Seen from both endpoints.
				next.loops[ci] += w / 2
				continue
			}
			next.adj[ci][cj] += w
		}
	}
	return next
}
