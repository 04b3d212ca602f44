package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcurator/internal/analyzer"
)

func TestGetTagAlbums(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.api.Get("/api/v1/tags/Shoegaze/albums")
	require.Equal(t, http.StatusOK, resp.Code)

	albums := decode[TagAlbumsResponse](t, resp)
	assert.Equal(t, "shoegaze", albums.Tag)
	assert.Equal(t, []string{"1", "2", "3"}, albums.Albums)

	resp = ts.api.Get("/api/v1/tags/vaporwave/albums")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetGraphEdges(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.api.Get("/api/v1/graph/edges?min_weight=3")
	require.Equal(t, http.StatusOK, resp.Code)

	edges := decode[GraphEdgesResponse](t, resp)
	assert.Equal(t, []analyzer.Edge{{A: "dream pop", B: "shoegaze", Weight: 3}}, edges.Edges)

	resp = ts.api.Get("/api/v1/graph/edges")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[GraphEdgesResponse](t, resp).Edges, ts.services.Analyzer.Graph().EdgeCount())
}

func TestSimilarityMatrix(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.api.Post("/api/v1/similarity/matrix", map[string]any{
		"tags": []string{"Shoegaze", "Shoegazer", "rock"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	matrix := decode[SimilarityMatrixResponse](t, resp)
	assert.Equal(t, 3, matrix.Total)
	require.Len(t, matrix.Pairs, 3)
	assert.Equal(t, "shoegaze", matrix.Pairs[0].A)
	assert.Equal(t, "shoegazer", matrix.Pairs[0].B)
	assert.InDelta(t, 1.0, matrix.Weights.Lexical+matrix.Weights.Cooccurrence+matrix.Weights.Structural, 1e-9)

	resp = ts.api.Post("/api/v1/similarity/matrix?limit=2", map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	matrix = decode[SimilarityMatrixResponse](t, resp)
	assert.Len(t, matrix.Pairs, 2)
	assert.Greater(t, matrix.Total, 2)
}
