package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/tagcurator/internal/analyzer"
	"github.com/listenupapp/tagcurator/internal/errors"
	"github.com/listenupapp/tagcurator/internal/similarity"
)

func (s *Server) registerGraphRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getTagAlbums",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{tag}/albums",
		Summary:     "Tag albums",
		Description: "Lists the albums carrying a tag",
		Tags:        []string{"Graph"},
	}, s.handleGetTagAlbums)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGraphEdges",
		Method:      http.MethodGet,
		Path:        "/api/v1/graph/edges",
		Summary:     "Co-occurrence edges",
		Description: "Lists co-occurrence graph edges with their shared album counts",
		Tags:        []string{"Graph"},
	}, s.handleGetGraphEdges)

	huma.Register(s.api, huma.Operation{
		OperationID: "similarityMatrix",
		Method:      http.MethodPost,
		Path:        "/api/v1/similarity/matrix",
		Summary:     "Similarity matrix",
		Description: "Scores every pair of the given tags, or of the whole corpus when none are given",
		Tags:        []string{"Graph"},
	}, s.handleSimilarityMatrix)
}

// === DTOs ===

// TagAlbumsInput contains the tag to look up.
type TagAlbumsInput struct {
	Tag string `path:"tag" doc:"Tag, raw or canonical"`
}

// TagAlbumsResponse lists the albums carrying a tag.
type TagAlbumsResponse struct {
	Tag    string   `json:"tag" doc:"Canonical tag"`
	Albums []string `json:"albums" doc:"Album IDs, sorted"`
}

// TagAlbumsOutput wraps the tag albums response for Huma.
type TagAlbumsOutput struct {
	Body TagAlbumsResponse
}

// GraphEdgesInput contains parameters for listing edges.
type GraphEdgesInput struct {
	MinWeight int `query:"min_weight" default:"1" minimum:"1" doc:"Minimum shared albums"`
}

// GraphEdgesResponse lists co-occurrence edges.
type GraphEdgesResponse struct {
	Edges []analyzer.Edge `json:"edges" doc:"Edges sorted by tag pair"`
}

// GraphEdgesOutput wraps the edge list for Huma.
type GraphEdgesOutput struct {
	Body GraphEdgesResponse
}

// SimilarityMatrixRequest names the tags to score.
type SimilarityMatrixRequest struct {
	Tags []string `json:"tags,omitempty" required:"false" maxItems:"500" doc:"Tags to score; empty scores every known tag"`
}

// SimilarityMatrixInput wraps the matrix request for Huma.
type SimilarityMatrixInput struct {
	Limit int `query:"limit" default:"100" minimum:"1" maximum:"10000" doc:"Maximum number of pairs returned"`
	Body  SimilarityMatrixRequest
}

// PairScore is the combined similarity of two tags.
type PairScore struct {
	A     string  `json:"a" doc:"First tag"`
	B     string  `json:"b" doc:"Second tag"`
	Score float64 `json:"score" doc:"Combined similarity in [0, 1]"`
}

// SimilarityMatrixResponse lists scored pairs, best first.
type SimilarityMatrixResponse struct {
	Weights similarity.Weights `json:"weights" doc:"Sub-score weights in use"`
	Total   int                `json:"total" doc:"Pairs scored before the limit"`
	Pairs   []PairScore        `json:"pairs" doc:"Pairs by descending score"`
}

// SimilarityMatrixOutput wraps the matrix response for Huma.
type SimilarityMatrixOutput struct {
	Body SimilarityMatrixResponse
}

// === Handlers ===

func (s *Server) handleGetTagAlbums(_ context.Context, input *TagAlbumsInput) (*TagAlbumsOutput, error) {
	a := s.services.Analyzer
	tag := a.Normalize(input.Tag)
	if !a.HasTag(tag) {
		return nil, s.apiError(errors.NotFoundf("unknown tag %q", tag))
	}
	return &TagAlbumsOutput{Body: TagAlbumsResponse{Tag: tag, Albums: a.Albums(tag)}}, nil
}

func (s *Server) handleGetGraphEdges(_ context.Context, input *GraphEdgesInput) (*GraphEdgesOutput, error) {
	all := s.services.Analyzer.Graph().Edges()
	edges := make([]analyzer.Edge, 0, len(all))
	for _, e := range all {
		if e.Weight >= input.MinWeight {
			edges = append(edges, e)
		}
	}
	return &GraphEdgesOutput{Body: GraphEdgesResponse{Edges: edges}}, nil
}

func (s *Server) handleSimilarityMatrix(_ context.Context, input *SimilarityMatrixInput) (*SimilarityMatrixOutput, error) {
	var tags []string
	if len(input.Body.Tags) > 0 {
		tags = make([]string, 0, len(input.Body.Tags))
		for _, raw := range input.Body.Tags {
			if tag := s.services.Analyzer.Normalize(raw); tag != "" {
				tags = append(tags, tag)
			}
		}
		if len(tags) == 0 {
			return nil, s.apiError(errors.Validation("no tag survives normalization"))
		}
	}

	scores := s.services.Similarity.CalculateAll(tags)
	pairs := make([]PairScore, 0, len(scores))
	for p, score := range scores {
		pairs = append(pairs, PairScore{A: p.A, B: p.B, Score: score})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})

	total := len(pairs)
	if len(pairs) > input.Limit {
		pairs = pairs[:input.Limit]
	}

	return &SimilarityMatrixOutput{Body: SimilarityMatrixResponse{
		Weights: s.services.Similarity.Weights(),
		Total:   total,
		Pairs:   pairs,
	}}, nil
}
