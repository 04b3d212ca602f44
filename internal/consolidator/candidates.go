package consolidator

import (
	"sort"

	"github.com/listenupapp/tagcurator/internal/domain"
	"github.com/listenupapp/tagcurator/internal/errors"
)

// fuzzy candidate lookup parameters for pruned scans.
const (
	fuzzyEdits = 2
	fuzzyLimit = 20
)

// pairing tracks which tags are already spoken for in one identification run.
// An absorbed tag is never a primary; a primary may absorb many tags.
type pairing struct {
	absorbed  map[string]bool
	primaries map[string]bool
}

func (p *pairing) canPair(tag, primary string) bool {
	return !p.absorbed[tag] && !p.primaries[tag] && !p.absorbed[primary]
}

func (p *pairing) pair(tag, primary string) {
	p.absorbed[tag] = true
	p.primaries[primary] = true
}

// IdentifyMergeCandidates returns every tag paired with a proposed primary.
// Rule proposals come first (tags in sorted order, rules in insertion order,
// first accepted rule wins). Tags no rule touched are then paired by
// similarity: pairs scoring at least MergeThreshold are taken best first, the
// more frequent tag becoming primary (ties go to the lexicographically smaller
// tag). Rejected pairs are never proposed. The result is deterministic for an
// unchanged corpus.
func (c *Consolidator) IdentifyMergeCandidates() []domain.MergeProposal {
	c.mu.Lock()
	rules := make([]domain.ConsolidationRule, len(c.rules))
	copy(rules, c.rules)
	rejected := make(map[domain.TagPair]struct{}, len(c.rejected))
	for p := range c.rejected {
		rejected[p] = struct{}{}
	}
	c.mu.Unlock()

	isRejected := func(a, b string) bool {
		_, ok := rejected[domain.NewTagPair(a, b)]
		return ok
	}

	tags := c.analyzer.Tags()
	state := &pairing{absorbed: make(map[string]bool), primaries: make(map[string]bool)}
	proposals := make([]domain.MergeProposal, 0)

	for _, tag := range tags {
		for i, rule := range rules {
			if !rule.Matches(tag) || rule.Replacement == tag {
				continue
			}
			target := rule.Replacement
			if isRejected(tag, target) || !state.canPair(tag, target) {
				continue
			}
			var sim float64
			if c.analyzer.HasTag(target) {
				sim = c.similarity.Similarity(tag, target)
				if sim < rule.MinSimilarity {
					continue
				}
			}
			state.pair(tag, target)
			proposals = append(proposals, &domain.RuleProposal{
				Tag:        tag,
				Target:     target,
				Rule:       rule,
				RuleIndex:  i,
				Similarity: sim,
			})
			break
		}
	}
	ruleCount := len(proposals)

	eligible := make([]string, 0, len(tags))
	for _, t := range tags {
		if !state.absorbed[t] {
			eligible = append(eligible, t)
		}
	}

	type scored struct {
		pair  domain.TagPair
		score float64
	}
	var hits []scored
	for p, s := range c.similarity.CalculatePairs(c.candidatePairs(eligible)) {
		if s >= c.cfg.MergeThreshold && !isRejected(p.A, p.B) {
			hits = append(hits, scored{pair: p, score: s})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if hits[i].pair.A != hits[j].pair.A {
			return hits[i].pair.A < hits[j].pair.A
		}
		return hits[i].pair.B < hits[j].pair.B
	})

	for _, h := range hits {
		primary, tag := c.choosePrimary(h.pair.A, h.pair.B)
		if !state.canPair(tag, primary) {
			continue
		}
		state.pair(tag, primary)
		proposals = append(proposals, &domain.SimilarityProposal{
			Tag:        tag,
			Target:     primary,
			Similarity: h.score,
		})
	}

	c.logger.Debug("identified merge candidates",
		"rule", ruleCount,
		"similarity", len(proposals)-ruleCount,
		"tags", len(tags),
	)
	return proposals
}

// choosePrimary returns the more frequent tag first; ties go to the
// lexicographically smaller one.
func (c *Consolidator) choosePrimary(a, b string) (primary, absorbed string) {
	fa, fb := c.analyzer.Frequency(a), c.analyzer.Frequency(b)
	switch {
	case fa > fb:
		return a, b
	case fb > fa:
		return b, a
	case a < b:
		return a, b
	default:
		return b, a
	}
}

// candidatePairs lists the pairs worth scoring. Small vocabularies are
// scanned exhaustively; larger ones only pair tags within two hops in the
// co-occurrence graph plus fuzzy name matches from the tag index.
func (c *Consolidator) candidatePairs(tags []string) []domain.TagPair {
	pairs := make([]domain.TagPair, 0)
	limit := c.cfg.ExhaustiveScanLimit
	if limit <= 0 || len(tags) <= limit {
		for i, a := range tags {
			for _, b := range tags[i+1:] {
				pairs = append(pairs, domain.NewTagPair(a, b))
			}
		}
		return pairs
	}

	eligible := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		eligible[t] = struct{}{}
	}
	seen := make(map[domain.TagPair]struct{})
	add := func(a, b string) {
		if a == b {
			return
		}
		if _, ok := eligible[b]; !ok {
			return
		}
		p := domain.NewTagPair(a, b)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}

	g := c.analyzer.Graph()
	for _, t := range tags {
		for _, n := range g.Neighbors(t) {
			add(t, n)
			g.EachNeighbor(n, func(nn string, _ int) { add(t, nn) })
		}
		if c.index == nil {
			continue
		}
		matches, err := c.index.Fuzzy(t, fuzzyEdits, fuzzyLimit)
		if err != nil {
			c.logger.Warn("fuzzy tag lookup failed", "tag", t, "error", err)
			continue
		}
		for _, m := range matches {
			add(t, m)
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	c.logger.Debug("pruned similarity candidates", "tags", len(tags), "pairs", len(pairs))
	return pairs
}

// SuggestMerges groups the current proposals by primary and orders them by
// total frequency impact (primary plus absorbed frequencies), highest first.
func (c *Consolidator) SuggestMerges() []domain.MergeSuggestion {
	proposals := c.IdentifyMergeCandidates()

	byPrimary := make(map[string]*domain.MergeSuggestion)
	order := make([]string, 0)
	for _, p := range proposals {
		s, ok := byPrimary[p.Primary()]
		if !ok {
			freq := c.analyzer.Frequency(p.Primary())
			s = &domain.MergeSuggestion{
				Primary:          p.Primary(),
				PrimaryFrequency: freq,
				Source:           p.Source(),
				TotalImpact:      freq,
			}
			byPrimary[p.Primary()] = s
			order = append(order, p.Primary())
		}
		if p.Source() == domain.SourceRule {
			s.Source = domain.SourceRule
		}
		freq := c.analyzer.Frequency(p.Absorbed())
		s.Tags = append(s.Tags, domain.TagCount{Tag: p.Absorbed(), Frequency: freq})
		s.TotalImpact += freq
	}

	out := make([]domain.MergeSuggestion, 0, len(order))
	for _, primary := range order {
		s := byPrimary[primary]
		sort.SliceStable(s.Tags, func(i, j int) bool {
			if s.Tags[i].Frequency != s.Tags[j].Frequency {
				return s.Tags[i].Frequency > s.Tags[j].Frequency
			}
			return s.Tags[i].Tag < s.Tags[j].Tag
		})
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalImpact != out[j].TotalImpact {
			return out[i].TotalImpact > out[j].TotalImpact
		}
		return out[i].Primary < out[j].Primary
	})
	return out
}

// RejectMerge marks every (primary, tag) pair as rejected so later candidate
// identification skips it.
func (c *Consolidator) RejectMerge(primary string, tags []string) error {
	primary, tags, err := c.normalizeRequest(primary, tags)
	if err != nil {
		return err
	}

	c.mu.Lock()
	for _, t := range tags {
		c.rejected[domain.NewTagPair(primary, t)] = struct{}{}
	}
	c.mu.Unlock()

	c.logger.Info("merge rejected", "primary", primary, "tags", tags)
	return nil
}

// Rejected returns the rejected pairs in sorted order.
func (c *Consolidator) Rejected() []domain.TagPair {
	c.mu.Lock()
	out := make([]domain.TagPair, 0, len(c.rejected))
	for p := range c.rejected {
		out = append(out, p)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// ClearRejection lifts a rejection.
func (c *Consolidator) ClearRejection(a, b string) error {
	pair := domain.NewTagPair(c.analyzer.Normalize(a), c.analyzer.Normalize(b))

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rejected[pair]; !ok {
		return errors.NotFoundf("no rejection for %q and %q", pair.A, pair.B)
	}
	delete(c.rejected, pair)
	return nil
}
