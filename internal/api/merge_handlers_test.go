package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcurator/internal/domain"
)

func TestListMergeSuggestions(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.api.Get("/api/v1/merges/suggestions")
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[SuggestionsResponse](t, resp)
	var primaries []string
	for _, s := range body.Suggestions {
		primaries = append(primaries, s.Primary)
	}
	assert.Contains(t, primaries, "shoegaze")
}

func TestMergeWorkflow(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.api.Post("/api/v1/merges/preview", map[string]any{
		"primary": "Progressive Metal",
		"tags":    []string{"Prog Metal"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	preview := decode[domain.MergePreview](t, resp)
	assert.Equal(t, 2, preview.AffectedAlbums)
	assert.Equal(t, 3, preview.ResultingFrequency)

	resp = ts.api.Post("/api/v1/merges", map[string]any{
		"primary":        preview.Primary,
		"tags":           preview.Tags,
		"corpus_version": preview.CorpusVersion,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	queued := decode[domain.PendingMerge](t, resp)
	assert.Equal(t, domain.MergeQueued, queued.State)

	resp = ts.api.Post("/api/v1/merges", map[string]any{
		"primary": "shoegaze",
		"tags":    []string{"shoegazer"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/merges/pending")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[PendingMergesResponse](t, resp).Merges, 2)

	resp = ts.api.Post("/api/v1/merges/apply")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	report := decode[domain.ApplyReport](t, resp)
	require.Len(t, report.Merges, 2)
	for _, m := range report.Merges {
		assert.Equal(t, domain.MergeApplied, m.State)
	}
	assert.Equal(t, 3, report.AlbumsRewritten)
	assert.Equal(t, ts.corpus.Version(), report.CorpusVersion)

	resp = ts.api.Get("/api/v1/merges/pending")
	assert.Empty(t, decode[PendingMergesResponse](t, resp).Merges)

	resp = ts.api.Get("/api/v1/merges/history")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[HistoryResponse](t, resp).History, 2)

	stored, err := ts.store.ListHistory(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestQueueMerge_StaleCorpusVersion(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.api.Post("/api/v1/merges", map[string]any{
		"primary":        "shoegaze",
		"tags":           []string{"shoegazer"},
		"corpus_version": ts.corpus.Version() + 5,
	})
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "STALE_PREVIEW", decode[errorBody](t, resp).Code)
}

func TestQueueMerge_Conflicts(t *testing.T) {
	ts := setupTestServer(t, Config{})
	merge := map[string]any{"primary": "rok", "tags": []string{"rock"}}

	resp := ts.api.Post("/api/v1/merges", merge)
	require.Equal(t, http.StatusConflict, resp.Code)

	body := decode[errorBody](t, resp)
	assert.Equal(t, "CONFLICT", body.Code)
	assert.Contains(t, string(body.Details), string(domain.ConflictFrequencyMismatch))

	merge["force"] = true
	resp = ts.api.Post("/api/v1/merges", merge)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.True(t, decode[domain.PendingMerge](t, resp).Forced)
}

func TestPreviewMerge_BlockedByPendingMerge(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.api.Post("/api/v1/merges", map[string]any{"primary": "shoegaze", "tags": []string{"shoegazer"}})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/merges/preview", map[string]any{
		"primary": "dream pop",
		"tags":    []string{"shoegazer"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	preview := decode[PreviewResponse](t, resp)
	assert.True(t, preview.Blocked)
	var kinds []domain.ConflictKind
	for _, c := range preview.Conflicts {
		kinds = append(kinds, c.Kind)
	}
	assert.Contains(t, kinds, domain.ConflictExistingMerge)
}

func TestPreviewMerge_Validation(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.api.Post("/api/v1/merges/preview", map[string]any{
		"primary": "shoegaze",
		"tags":    []string{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "VALIDATION", decode[errorBody](t, resp).Code)
}

func TestDequeueMerge(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.api.Post("/api/v1/merges", map[string]any{"primary": "shoegaze", "tags": []string{"shoegazer"}})
	require.Equal(t, http.StatusCreated, resp.Code)
	queued := decode[domain.PendingMerge](t, resp)

	resp = ts.api.Delete("/api/v1/merges/" + queued.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	dequeued := decode[domain.PendingMerge](t, resp)
	assert.Equal(t, domain.MergeCandidate, dequeued.State)
	assert.Equal(t, queued.ID, dequeued.ID)

	resp = ts.api.Delete("/api/v1/merges/" + queued.ID)
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorBody](t, resp).Code)

	// Dequeued merges may be queued again.
	resp = ts.api.Post("/api/v1/merges", map[string]any{"primary": "shoegaze", "tags": []string{"shoegazer"}})
	assert.Equal(t, http.StatusCreated, resp.Code)
}

func TestRejectPendingMerge(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.api.Post("/api/v1/merges", map[string]any{"primary": "shoegaze", "tags": []string{"shoegazer"}})
	require.Equal(t, http.StatusCreated, resp.Code)
	queued := decode[domain.PendingMerge](t, resp)

	resp = ts.api.Post("/api/v1/merges/" + queued.ID + "/reject")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, domain.MergeRejected, decode[domain.PendingMerge](t, resp).State)

	resp = ts.api.Get("/api/v1/rejections")
	assert.Equal(t, []Rejection{{A: "shoegaze", B: "shoegazer"}}, decode[RejectionsResponse](t, resp).Rejections)

	resp = ts.api.Get("/api/v1/merges/suggestions")
	for _, s := range decode[SuggestionsResponse](t, resp).Suggestions {
		assert.NotEqual(t, "shoegaze", s.Primary)
	}
}

func TestApplyMerges_EmptyQueue(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.api.Post("/api/v1/merges/apply")
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "EMPTY_QUEUE", decode[errorBody](t, resp).Code)
}

func TestApplyMerges_AfterImportIsStale(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.api.Post("/api/v1/merges", map[string]any{"primary": "shoegaze", "tags": []string{"shoegazer"}})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Post("/api/v1/records", map[string]any{
		"records": []map[string]any{{"album_id": "14", "tags": []string{"Jazz"}}},
		"append":  true,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/merges/apply")
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "STALE_PREVIEW", decode[errorBody](t, resp).Code)
}
