package consolidator

import (
	"fmt"
	"strings"

	"github.com/listenupapp/tagcurator/internal/domain"
)

// DetectConflicts lists the risks of merging tags into primary. An empty
// result means the merge is clean. Inputs are normalized first.
func (c *Consolidator) DetectConflicts(primary string, tags []string) []domain.MergeConflict {
	primary, tags, err := c.normalizeRequest(primary, tags)
	if err != nil {
		return []domain.MergeConflict{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detectConflictsLocked(primary, tags)
}

// detectConflictsLocked expects canonical input and c.mu held.
func (c *Consolidator) detectConflictsLocked(primary string, tags []string) []domain.MergeConflict {
	conflicts := make([]domain.MergeConflict, 0)

	inMerge := map[string]bool{primary: true}
	for _, t := range tags {
		inMerge[t] = true
	}

	g := c.analyzer.Graph()
	fp := g.NodeWeight(primary)

	for _, t := range tags {
		ft := g.NodeWeight(t)

		// A primary that does not exist yet is a rename, not a mismatch.
		if fp > 0 && float64(ft) > float64(fp)*c.cfg.FrequencyMismatchRatio {
			conflicts = append(conflicts, domain.MergeConflict{
				Kind:    domain.ConflictFrequencyMismatch,
				Primary: primary,
				Tags:    []string{t},
				Description: fmt.Sprintf("%q is on %d albums but primary %q is only on %d",
					t, ft, primary, fp),
			})
		}

		if ft > 0 {
			var lost []string
			for _, n := range g.Neighbors(t) {
				if inMerge[n] {
					continue
				}
				w := g.Weight(t, n)
				if w < c.cfg.MinRelationshipWeight || g.RelationshipStrength(t, n) < c.cfg.StrongRelationship {
					continue
				}
				if fp > 0 && g.RelationshipStrength(primary, n) >= c.cfg.SharedRelationship {
					continue
				}
				lost = append(lost, n)
			}
			if len(lost) > 0 {
				conflicts = append(conflicts, domain.MergeConflict{
					Kind:    domain.ConflictRelationship,
					Primary: primary,
					Tags:    []string{t},
					Description: fmt.Sprintf("%q is strongly related to %s, which %q does not share",
						t, quoteList(lost), primary),
				})
			}
		}

		for _, p := range c.pending {
			if p.Involves(t) {
				conflicts = append(conflicts, domain.MergeConflict{
					Kind:        domain.ConflictExistingMerge,
					Primary:     primary,
					Tags:        []string{t},
					Description: fmt.Sprintf("%q is already part of pending merge %s into %q", t, p.ID, p.Primary),
				})
				break
			}
		}
	}

	for _, p := range c.pending {
		if p.Primary == primary {
			continue
		}
		if p.Involves(primary) {
			conflicts = append(conflicts, domain.MergeConflict{
				Kind:        domain.ConflictExistingMerge,
				Primary:     primary,
				Tags:        []string{primary},
				Description: fmt.Sprintf("primary %q is being merged into %q by pending merge %s", primary, p.Primary, p.ID),
			})
			break
		}
	}

	return conflicts
}

// PreviewMerge evaluates a merge without changing anything. AffectedAlbums
// counts the albums whose tag lists would be rewritten (those carrying any
// absorbed tag); ResultingFrequency counts the albums that would carry the
// primary afterwards.
func (c *Consolidator) PreviewMerge(primary string, tags []string) (*domain.MergePreview, error) {
	primary, tags, err := c.normalizeRequest(primary, tags)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	conflicts := c.detectConflictsLocked(primary, tags)
	c.mu.Unlock()

	all := append([]string{primary}, tags...)
	return &domain.MergePreview{
		Primary:            primary,
		Tags:               tags,
		AffectedAlbums:     c.analyzer.AlbumUnion(tags...),
		ResultingFrequency: c.analyzer.AlbumUnion(all...),
		Conflicts:          conflicts,
		CorpusVersion:      c.analyzer.CorpusVersion(),
	}, nil
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
