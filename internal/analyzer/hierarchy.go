package analyzer

import (
	"sort"
	"strings"

	"github.com/listenupapp/tagcurator/internal/domain"
)

// HierarchyReport holds advisory parent -> child edges. Dropped lists edges the
// tokenization heuristic proposed but that would have closed a cycle.
type HierarchyReport struct {
	Edges   []domain.HierarchyEdge `json:"edges"`
	Dropped []domain.HierarchyEdge `json:"dropped"`

	parents  map[string][]string
	children map[string][]string
}

// DetectHierarchies proposes parent -> child edges: for every multi-token tag,
// removing the leading or trailing token yields a candidate parent, accepted
// when it is a known tag. "melodic death metal" gets parents "death metal"
// and "melodic death" when those exist.
func (a *Analyzer) DetectHierarchies() *HierarchyReport {
	g := a.current().graph
	report := &HierarchyReport{
		Edges:    make([]domain.HierarchyEdge, 0),
		Dropped:  make([]domain.HierarchyEdge, 0),
		parents:  make(map[string][]string),
		children: make(map[string][]string),
	}

	// Shorter tags first so parents are registered before their children.
	tags := g.Nodes()
	sort.SliceStable(tags, func(i, j int) bool {
		return len(strings.Fields(tags[i])) < len(strings.Fields(tags[j]))
	})

	for _, child := range tags {
		tokens := strings.Fields(child)
		if len(tokens) < 2 {
			continue
		}
		candidates := []string{
			strings.Join(tokens[1:], " "),
			strings.Join(tokens[:len(tokens)-1], " "),
		}
		for i, parent := range candidates {
			if i == 1 && parent == candidates[0] {
				continue
			}
			if parent == child || !g.HasNode(parent) {
				continue
			}
			edge := domain.HierarchyEdge{Parent: parent, Child: child}
			if report.isAncestor(child, parent) {
				report.Dropped = append(report.Dropped, edge)
				a.logger.Warn("dropped cyclic hierarchy edge", "parent", parent, "child", child)
				continue
			}
			report.add(edge)
		}
	}

	return report
}

// AddEdge records an externally supplied edge with the same cycle guard.
// It returns false when the edge was dropped.
func (r *HierarchyReport) AddEdge(parent, child string) bool {
	edge := domain.HierarchyEdge{Parent: parent, Child: child}
	if parent == child || r.isAncestor(child, parent) {
		r.Dropped = append(r.Dropped, edge)
		return false
	}
	for _, p := range r.parents[child] {
		if p == parent {
			return true
		}
	}
	r.add(edge)
	return true
}

func (r *HierarchyReport) add(e domain.HierarchyEdge) {
	r.Edges = append(r.Edges, e)
	r.parents[e.Child] = append(r.parents[e.Child], e.Parent)
	r.children[e.Parent] = append(r.children[e.Parent], e.Child)
}

// isAncestor reports whether candidate is reachable walking up from tag.
func (r *HierarchyReport) isAncestor(candidate, tag string) bool {
	if candidate == tag {
		return true
	}
	visited := map[string]bool{tag: true}
	stack := []string{tag}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range r.parents[cur] {
			if p == candidate {
				return true
			}
			if !visited[p] {
				visited[p] = true
				stack = append(stack, p)
			}
		}
	}
	return false
}

// Parents returns the direct parents of tag.
func (r *HierarchyReport) Parents(tag string) []string {
	return sortedCopy(r.parents[tag])
}

// Children returns the direct children of tag.
func (r *HierarchyReport) Children(tag string) []string {
	return sortedCopy(r.children[tag])
}

// Ancestors returns every tag reachable upwards from tag, sorted.
func (r *HierarchyReport) Ancestors(tag string) []string {
	visited := map[string]bool{tag: true}
	stack := []string{tag}
	var out []string
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range r.parents[cur] {
			if !visited[p] {
				visited[p] = true
				out = append(out, p)
				stack = append(stack, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Roots returns parents that have no parent themselves, sorted.
func (r *HierarchyReport) Roots() []string {
	var out []string
	for p := range r.children {
		if len(r.parents[p]) == 0 {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
