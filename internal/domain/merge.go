package domain

import (
	"regexp"
	"time"
)

// ConsolidationRule maps tags matching Pattern onto Replacement.
// Rules are evaluated in insertion order and are never deleted automatically.
type ConsolidationRule struct {
	Pattern       string  `json:"pattern" toml:"pattern" validate:"required,max=500,regexp"`
	Replacement   string  `json:"replacement" toml:"replacement" validate:"required,max=200"`
	MinSimilarity float64 `json:"min_similarity" toml:"min_similarity" validate:"gte=0,lte=1"`

	matcher *regexp.Regexp
}

// Compile prepares the rule's matcher. The pattern must match the whole
// canonical tag, ignoring case, so a plain literal such as "prog metal" only
// matches itself.
func (r *ConsolidationRule) Compile() error {
	re, err := regexp.Compile(`(?i)^(?:` + r.Pattern + `)$`)
	if err != nil {
		return err
	}
	r.matcher = re
	return nil
}

// Matches reports whether tag matches the rule pattern.
// An uncompiled rule falls back to exact comparison.
func (r *ConsolidationRule) Matches(tag string) bool {
	if r.matcher == nil {
		return tag == r.Pattern
	}
	return r.matcher.MatchString(tag)
}

// ProposalSource records where a merge proposal came from.
type ProposalSource string

// Proposal sources. Rule-sourced proposals outrank similarity-sourced ones.
const (
	SourceRule       ProposalSource = "rule"
	SourceSimilarity ProposalSource = "similarity"
)

// MergeProposal is a proposed pairing of a tag with the primary form that
// should absorb it. The concrete type carries the provenance:
// *RuleProposal or *SimilarityProposal.
type MergeProposal interface {
	Absorbed() string
	Primary() string
	Source() ProposalSource
	Score() float64
	isMergeProposal()
}

// RuleProposal is a proposal produced by a ConsolidationRule.
type RuleProposal struct {
	Tag        string
	Target     string
	Rule       ConsolidationRule
	RuleIndex  int
	Similarity float64
}

func (p *RuleProposal) Absorbed() string       { return p.Tag }
func (p *RuleProposal) Primary() string        { return p.Target }
func (p *RuleProposal) Source() ProposalSource { return SourceRule }
func (p *RuleProposal) Score() float64         { return p.Similarity }
func (*RuleProposal) isMergeProposal()         {}

// SimilarityProposal is a proposal produced by the similarity threshold scan.
type SimilarityProposal struct {
	Tag        string
	Target     string
	Similarity float64
}

func (p *SimilarityProposal) Absorbed() string       { return p.Tag }
func (p *SimilarityProposal) Primary() string        { return p.Target }
func (p *SimilarityProposal) Source() ProposalSource { return SourceSimilarity }
func (p *SimilarityProposal) Score() float64         { return p.Similarity }
func (*SimilarityProposal) isMergeProposal()         {}

// MergeRequest names a primary and the tags it should absorb.
type MergeRequest struct {
	Primary string   `json:"primary" validate:"required,max=200"`
	Tags    []string `json:"tags" validate:"required,min=1,dive,required,max=200"`
}

// MergeSuggestion groups proposals sharing a primary, with frequency
// information for reviewers.
type MergeSuggestion struct {
	Primary          string         `json:"primary"`
	PrimaryFrequency int            `json:"primary_frequency"`
	Tags             []TagCount     `json:"tags"`
	Source           ProposalSource `json:"source"`
	TotalImpact      int            `json:"total_impact"`
}

// ConflictKind classifies why a proposed merge is risky.
type ConflictKind string

const (
	// ConflictFrequencyMismatch: an absorbed tag is far more common than the primary.
	ConflictFrequencyMismatch ConflictKind = "FREQUENCY_MISMATCH"
	// ConflictRelationship: an absorbed tag has strong relationships the primary lacks.
	ConflictRelationship ConflictKind = "RELATIONSHIP_CONFLICT"
	// ConflictExistingMerge: a tag is already part of another pending merge. Never overridable.
	ConflictExistingMerge ConflictKind = "EXISTING_MERGE"
)

// Overridable reports whether force may bypass this conflict kind.
func (k ConflictKind) Overridable() bool {
	return k != ConflictExistingMerge
}

// MergeConflict describes one risk found for a proposed merge.
type MergeConflict struct {
	Kind        ConflictKind `json:"kind"`
	Primary     string       `json:"primary"`
	Tags        []string     `json:"tags"`
	Description string       `json:"description"`
}

// MergePreview is the side-effect free evaluation of one proposed merge.
type MergePreview struct {
	Primary            string          `json:"primary"`
	Tags               []string        `json:"tags"`
	AffectedAlbums     int             `json:"affected_albums"`
	ResultingFrequency int             `json:"resulting_frequency"`
	Conflicts          []MergeConflict `json:"conflicts"`
	CorpusVersion      uint64          `json:"corpus_version"`
}

// Clean reports whether the preview found no conflicts.
func (p *MergePreview) Clean() bool {
	return len(p.Conflicts) == 0
}

// Blocked reports whether the preview has a conflict force cannot override.
func (p *MergePreview) Blocked() bool {
	for _, c := range p.Conflicts {
		if !c.Kind.Overridable() {
			return true
		}
	}
	return false
}

// MergeState is the lifecycle position of a proposed merge.
type MergeState string

// A merge is queued from a preview. Dequeuing returns it to candidate;
// rejecting or applying it is final.
const (
	MergeCandidate MergeState = "candidate"
	MergeQueued    MergeState = "queued"
	MergeRejected  MergeState = "rejected"
	MergeApplied   MergeState = "applied"
)

// PendingMerge is a queued merge waiting for a batch apply.
type PendingMerge struct {
	ID            string     `json:"id"`
	Primary       string     `json:"primary"`
	Tags          []string   `json:"tags"`
	State         MergeState `json:"state"`
	Forced        bool       `json:"forced"`
	CorpusVersion uint64     `json:"corpus_version"`
	QueuedAt      time.Time  `json:"queued_at"`
}

// Involves reports whether tag is the primary or one of the absorbed tags.
func (m *PendingMerge) Involves(tag string) bool {
	if m.Primary == tag {
		return true
	}
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MergeHistoryEntry is the permanent record of an applied merge.
type MergeHistoryEntry struct {
	ID              string    `json:"id"`
	Primary         string    `json:"primary"`
	Tags            []string  `json:"tags"`
	AlbumsRewritten int       `json:"albums_rewritten"`
	AppliedAt       time.Time `json:"applied_at"`
}

// ApplyReport summarizes one batch apply.
type ApplyReport struct {
	Applied         []MergeHistoryEntry `json:"applied"`
	Merges          []PendingMerge      `json:"merges"`
	AlbumsRewritten int                 `json:"albums_rewritten"`
	CorpusVersion   uint64              `json:"corpus_version"`
}
