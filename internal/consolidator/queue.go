package consolidator

import (
	"context"

	"github.com/listenupapp/tagcurator/internal/domain"
	"github.com/listenupapp/tagcurator/internal/errors"
	"github.com/listenupapp/tagcurator/internal/id"
)

// QueueMerge previews a merge and queues it. Conflicts fail the call unless
// force is set; an ExistingMerge conflict fails it regardless of force.
// A failed call queues nothing and returns an error whose details are the
// []domain.MergeConflict found.
func (c *Consolidator) QueueMerge(primary string, tags []string, force bool) (*domain.PendingMerge, error) {
	preview, err := c.PreviewMerge(primary, tags)
	if err != nil {
		return nil, err
	}
	return c.QueuePreview(preview, force)
}

// QueuePreview queues a previously computed preview. It fails with
// ErrStalePreview when the corpus changed since the preview was made.
// Conflicts are re-checked against the current queue.
func (c *Consolidator) QueuePreview(preview *domain.MergePreview, force bool) (*domain.PendingMerge, error) {
	if preview == nil {
		return nil, errors.Validation("preview is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if current := c.corpus.Version(); preview.CorpusVersion != current {
		return nil, errors.StalePreviewf(
			"preview of merge into %q was computed at corpus version %d, corpus is at %d",
			preview.Primary, preview.CorpusVersion, current)
	}

	conflicts := c.detectConflictsLocked(preview.Primary, preview.Tags)
	blocked := false
	for _, cf := range conflicts {
		if !cf.Kind.Overridable() {
			blocked = true
			break
		}
	}
	if blocked || (len(conflicts) > 0 && !force) {
		c.logger.Info("merge not queued",
			"primary", preview.Primary,
			"tags", preview.Tags,
			"conflicts", len(conflicts),
			"force", force,
		)
		return nil, errors.Conflictf("merge into %q has %d conflict(s)", preview.Primary, len(conflicts)).
			WithDetails(conflicts)
	}

	mergeID, err := id.Merge()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate merge id")
	}

	pm := domain.PendingMerge{
		ID:            mergeID,
		Primary:       preview.Primary,
		Tags:          append([]string(nil), preview.Tags...),
		State:         domain.MergeQueued,
		Forced:        force && len(conflicts) > 0,
		CorpusVersion: preview.CorpusVersion,
		QueuedAt:      c.now(),
	}
	c.pending = append(c.pending, pm)

	c.logger.Info("merge queued",
		"id", pm.ID,
		"primary", pm.Primary,
		"tags", pm.Tags,
		"forced", pm.Forced,
	)
	out := clonePending(pm)
	return &out, nil
}

// DequeueMerge removes a pending merge before it is applied. The returned
// merge is back in the candidate state and may be queued again.
func (c *Consolidator) DequeueMerge(mergeID string) (*domain.PendingMerge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pm, err := c.removePendingLocked(mergeID)
	if err != nil {
		return nil, err
	}
	pm.State = domain.MergeCandidate
	c.logger.Info("merge dequeued", "id", mergeID, "primary", pm.Primary)
	return pm, nil
}

// RejectPendingMerge removes a pending merge and rejects its pairs, so
// candidate identification no longer proposes them.
func (c *Consolidator) RejectPendingMerge(mergeID string) (*domain.PendingMerge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pm, err := c.removePendingLocked(mergeID)
	if err != nil {
		return nil, err
	}
	for _, t := range pm.Tags {
		c.rejected[domain.NewTagPair(pm.Primary, t)] = struct{}{}
	}
	pm.State = domain.MergeRejected
	c.logger.Info("merge rejected", "id", mergeID, "primary", pm.Primary, "tags", pm.Tags)
	return pm, nil
}

func (c *Consolidator) removePendingLocked(mergeID string) (*domain.PendingMerge, error) {
	for i, p := range c.pending {
		if p.ID == mergeID {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			out := clonePending(p)
			return &out, nil
		}
	}
	return nil, errors.NotFoundf("pending merge %s not found", mergeID)
}

// PendingMerges returns the queue in insertion order.
func (c *Consolidator) PendingMerges() []domain.PendingMerge {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.PendingMerge, len(c.pending))
	for i, p := range c.pending {
		out[i] = clonePending(p)
	}
	return out
}

// ApplyPendingMerges applies the whole queue as one commit: every album
// carrying an absorbed tag is rewritten with the primary in its place, the
// result is swapped into the corpus, persisted through the MergeRecorder,
// recorded in the history, and the analyzer is rebuilt.
//
// An empty queue yields ErrEmptyQueue. If the corpus moved since any merge
// was queued, or the analyzer was built from an older corpus, the call fails
// with ErrStalePreview and the queue is kept. When the recorder fails the
// corpus swap is rolled back, so corpus, history, and queue are untouched.
func (c *Consolidator) ApplyPendingMerges(ctx context.Context) (*domain.ApplyReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil, errors.ErrEmptyQueue
	}

	records, version := c.corpus.Snapshot()
	for _, p := range c.pending {
		if p.CorpusVersion != version {
			return nil, errors.StalePreviewf(
				"merge %s was queued at corpus version %d, corpus is at %d",
				p.ID, p.CorpusVersion, version)
		}
	}
	if built := c.analyzer.CorpusVersion(); built != version {
		return nil, errors.StalePreviewf(
			"tag graph was built from corpus version %d, corpus is at %d", built, version)
	}

	rewritten, touched := c.rewrite(records)

	now := c.now()
	entries := make([]domain.MergeHistoryEntry, 0, len(c.pending))
	total := make(map[string]struct{})
	for i, p := range c.pending {
		entryID, err := id.History()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "generate history id")
		}
		entries = append(entries, domain.MergeHistoryEntry{
			ID:              entryID,
			Primary:         p.Primary,
			Tags:            append([]string(nil), p.Tags...),
			AlbumsRewritten: len(touched[i]),
			AppliedAt:       now,
		})
		for album := range touched[i] {
			total[album] = struct{}{}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	newVersion, ok := c.corpus.Commit(version, rewritten)
	if !ok {
		return nil, errors.StalePreviewf("corpus changed during apply (expected version %d)", version)
	}
	if err := c.recorder.RecordMerge(ctx, rewritten, entries); err != nil {
		if !c.corpus.Rollback(newVersion, records, version) {
			c.logger.Error("corpus changed before a failed apply could be rolled back",
				"committed_version", newVersion,
				"corpus_version", c.corpus.Version(),
			)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "persist merges")
	}

	applied := make([]domain.PendingMerge, len(c.pending))
	for i, p := range c.pending {
		applied[i] = clonePending(p)
		applied[i].State = domain.MergeApplied
	}
	for _, e := range entries {
		c.history = append(c.history, cloneEntry(e))
	}
	c.pending = nil

	current, currentVersion := c.corpus.Snapshot()
	c.analyzer.Rebuild(current, currentVersion)
	c.similarity.Invalidate()
	c.updateIndex(applied)

	for _, e := range entries {
		c.logger.Info("merge applied",
			"id", e.ID,
			"primary", e.Primary,
			"tags", e.Tags,
			"albums", e.AlbumsRewritten,
		)
	}

	history := make([]domain.MergeHistoryEntry, len(entries))
	for i, e := range entries {
		history[i] = cloneEntry(e)
	}
	return &domain.ApplyReport{
		Applied:         history,
		Merges:          applied,
		AlbumsRewritten: len(total),
		CorpusVersion:   newVersion,
	}, nil
}

// rewrite returns records with every absorbed tag replaced by its primary,
// plus the albums each pending merge touched (indexed like c.pending).
// Records carrying no absorbed tag, malformed ones included, are carried over
// unchanged. In a rewritten record, raw tags that normalize to no absorbed
// tag keep their spelling and duplicates are dropped by canonical form.
func (c *Consolidator) rewrite(records []domain.Record) ([]domain.Record, []map[string]struct{}) {
	into := make(map[string]int)
	for i, p := range c.pending {
		for _, t := range p.Tags {
			into[t] = i
		}
	}
	touched := make([]map[string]struct{}, len(c.pending))
	for i := range touched {
		touched[i] = make(map[string]struct{})
	}

	out := make([]domain.Record, len(records))
	for i, r := range records {
		out[i] = r
		if !r.Valid() {
			continue
		}

		parts := make([][]string, len(r.Tags))
		changed := false
		for j, raw := range r.Tags {
			parts[j] = c.analyzer.NormalizeList(raw)
			for _, tag := range parts[j] {
				if m, ok := into[tag]; ok {
					touched[m][r.AlbumID] = struct{}{}
					changed = true
				}
			}
		}
		if !changed {
			continue
		}

		seen := make(map[string]struct{}, len(r.Tags))
		tags := make([]string, 0, len(r.Tags))
		for j, raw := range r.Tags {
			absorbs := false
			for _, tag := range parts[j] {
				if _, ok := into[tag]; ok {
					absorbs = true
					break
				}
			}
			if !absorbs {
				fresh := false
				for _, tag := range parts[j] {
					if _, dup := seen[tag]; !dup {
						seen[tag] = struct{}{}
						fresh = true
					}
				}
				if fresh {
					tags = append(tags, raw)
				}
				continue
			}
			for _, tag := range parts[j] {
				if m, ok := into[tag]; ok {
					tag = c.pending[m].Primary
				}
				if _, dup := seen[tag]; dup {
					continue
				}
				seen[tag] = struct{}{}
				tags = append(tags, tag)
			}
		}
		out[i] = domain.Record{AlbumID: r.AlbumID, Tags: tags}
	}
	return out, touched
}
