package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/tagcurator/internal/analyzer"
	"github.com/listenupapp/tagcurator/internal/domain"
	"github.com/listenupapp/tagcurator/internal/errors"
	"github.com/listenupapp/tagcurator/internal/search"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getTagStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "Tag statistics",
		Description: "Returns corpus totals and the most frequent tags with centrality",
		Tags:        []string{"Tags"},
	}, s.handleGetTagStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/search",
		Summary:     "Search tags",
		Description: "Finds tags by name, word, prefix, or near spelling",
		Tags:        []string{"Tags"},
	}, s.handleSearchTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSimilarTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{tag}/similar",
		Summary:     "Similar tags",
		Description: "Lists co-occurring tags with similarity evidence",
		Tags:        []string{"Tags"},
	}, s.handleGetSimilarTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAlbumTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/albums/{id}/tags",
		Summary:     "Album tags",
		Description: "Returns the canonical tags of one album",
		Tags:        []string{"Tags"},
	}, s.handleGetAlbumTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getHierarchy",
		Method:      http.MethodGet,
		Path:        "/api/v1/hierarchy",
		Summary:     "Tag hierarchy",
		Description: "Returns parent/child relations inferred from tag names",
		Tags:        []string{"Tags"},
	}, s.handleGetHierarchy)

	huma.Register(s.api, huma.Operation{
		OperationID: "getClusters",
		Method:      http.MethodGet,
		Path:        "/api/v1/clusters",
		Summary:     "Tag clusters",
		Description: "Groups tags into communities of the co-occurrence graph",
		Tags:        []string{"Tags"},
	}, s.handleGetClusters)
}

// === DTOs ===

// TagStatsInput contains parameters for tag statistics.
type TagStatsInput struct {
	Top int `query:"top" default:"20" minimum:"0" doc:"Number of tags to list"`
}

// TagStatsRow is one tag with its statistics.
type TagStatsRow struct {
	Tag string `json:"tag" doc:"Canonical tag"`
	domain.TagStats
}

// TagStatsResponse contains corpus totals and top tags.
type TagStatsResponse struct {
	Report analyzer.BuildReport `json:"report" doc:"Totals of the last analyzer build"`
	Tags   []TagStatsRow        `json:"tags" doc:"Most frequent tags"`
}

// TagStatsOutput wraps the tag statistics response for Huma.
type TagStatsOutput struct {
	Body TagStatsResponse
}

// SearchTagsInput contains parameters for searching tags.
type SearchTagsInput struct {
	Query  string `query:"q" doc:"Free text; empty lists every tag"`
	Limit  int    `query:"limit" default:"20" minimum:"1" maximum:"200" doc:"Maximum number of results"`
	Offset int    `query:"offset" default:"0" minimum:"0" doc:"Results to skip"`
}

// SearchTagsOutput wraps the search result for Huma.
type SearchTagsOutput struct {
	Body *search.SearchResult
}

// SimilarTagsInput contains parameters for listing similar tags.
type SimilarTagsInput struct {
	Tag        string  `path:"tag" doc:"Tag, raw or canonical"`
	MinOverlap float64 `query:"min_overlap" default:"0.1" minimum:"0" maximum:"1" doc:"Minimum co-occurrence overlap"`
	Limit      int     `query:"limit" default:"20" minimum:"0" doc:"Maximum number of tags (0 for all)"`
}

// SimilarTag is a neighbor with its similarity evidence.
type SimilarTag struct {
	Tag          string                     `json:"tag" doc:"Co-occurring tag"`
	SharedAlbums int                        `json:"shared_albums" doc:"Albums carrying both tags"`
	Overlap      float64                    `json:"overlap" doc:"Share of albums carrying both tags"`
	Similarity   domain.SimilarityBreakdown `json:"similarity" doc:"Similarity components"`
}

// SimilarTagsResponse lists the neighbors of a tag.
type SimilarTagsResponse struct {
	Tag     string          `json:"tag" doc:"Canonical tag"`
	Stats   domain.TagStats `json:"stats" doc:"Frequency and centrality of the tag"`
	Similar []SimilarTag    `json:"similar" doc:"Neighbors, most overlapping first"`
}

// AlbumTagsInput contains the album to look up.
type AlbumTagsInput struct {
	ID string `path:"id" doc:"Album ID"`
}

// AlbumTagsResponse lists the canonical tags of an album.
type AlbumTagsResponse struct {
	AlbumID string   `json:"album_id" doc:"Album ID"`
	Tags    []string `json:"tags" doc:"Canonical tags"`
}

// AlbumTagsOutput wraps the album tags response for Huma.
type AlbumTagsOutput struct {
	Body AlbumTagsResponse
}

// SimilarTagsOutput wraps the similar tags response for Huma.
type SimilarTagsOutput struct {
	Body SimilarTagsResponse
}

// HierarchyInput contains parameters for the hierarchy view.
type HierarchyInput struct {
	Tag string `query:"tag" doc:"Show relations of a single tag"`
}

// TagRelations lists the hierarchy neighbors of one tag.
type TagRelations struct {
	Tag       string   `json:"tag" doc:"Canonical tag"`
	Parents   []string `json:"parents" doc:"Direct parents"`
	Ancestors []string `json:"ancestors" doc:"Every tag above this one"`
	Children  []string `json:"children" doc:"Direct children"`
}

// HierarchyResponse contains the inferred hierarchy.
type HierarchyResponse struct {
	Edges     []domain.HierarchyEdge `json:"edges" doc:"Parent to child edges"`
	Dropped   []domain.HierarchyEdge `json:"dropped" doc:"Edges dropped to avoid cycles"`
	Roots     []string               `json:"roots" doc:"Tags with children but no parent"`
	Relations *TagRelations          `json:"relations,omitempty" doc:"Relations of the requested tag"`
}

// HierarchyOutput wraps the hierarchy response for Huma.
type HierarchyOutput struct {
	Body HierarchyResponse
}

// ClustersInput contains parameters for clustering.
type ClustersInput struct {
	MinSize int `query:"min_size" minimum:"0" doc:"Smallest cluster to report (default: configured size)"`
}

// Cluster is one community of tags.
type Cluster struct {
	ID   int      `json:"id" doc:"Cluster ID"`
	Tags []string `json:"tags" doc:"Member tags"`
}

// ClustersResponse lists clusters in ID order.
type ClustersResponse struct {
	Clusters []Cluster `json:"clusters" doc:"Clusters"`
}

// ClustersOutput wraps the clusters response for Huma.
type ClustersOutput struct {
	Body ClustersResponse
}

// === Handlers ===

func (s *Server) handleGetTagStats(_ context.Context, input *TagStatsInput) (*TagStatsOutput, error) {
	a := s.services.Analyzer
	stats := a.ComputeStatistics()

	top := a.TopTags(input.Top)
	rows := make([]TagStatsRow, 0, len(top))
	for _, tc := range top {
		rows = append(rows, TagStatsRow{Tag: tc.Tag, TagStats: stats[tc.Tag]})
	}

	return &TagStatsOutput{Body: TagStatsResponse{Report: a.Report(), Tags: rows}}, nil
}

func (s *Server) handleSearchTags(ctx context.Context, input *SearchTagsInput) (*SearchTagsOutput, error) {
	res, err := s.services.Search.Search(ctx, search.SearchParams{
		Query:  input.Query,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, s.apiError(err)
	}
	return &SearchTagsOutput{Body: res}, nil
}

func (s *Server) handleGetSimilarTags(_ context.Context, input *SimilarTagsInput) (*SimilarTagsOutput, error) {
	a := s.services.Analyzer
	tag := a.Normalize(input.Tag)
	if !a.HasTag(tag) {
		return nil, s.apiError(errors.NotFoundf("unknown tag %q", tag))
	}

	neighbors := a.FindSimilarTags(tag, input.MinOverlap)
	if input.Limit > 0 && len(neighbors) > input.Limit {
		neighbors = neighbors[:input.Limit]
	}

	similar := make([]SimilarTag, 0, len(neighbors))
	for _, n := range neighbors {
		similar = append(similar, SimilarTag{
			Tag:          n.Tag,
			SharedAlbums: a.EdgeWeight(tag, n.Tag),
			Overlap:      n.Score,
			Similarity:   s.services.Similarity.Breakdown(tag, n.Tag),
		})
	}

	return &SimilarTagsOutput{Body: SimilarTagsResponse{
		Tag:     tag,
		Stats:   a.Statistics(tag),
		Similar: similar,
	}}, nil
}

func (s *Server) handleGetAlbumTags(_ context.Context, input *AlbumTagsInput) (*AlbumTagsOutput, error) {
	tags := s.services.Analyzer.AlbumTags(input.ID)
	if len(tags) == 0 {
		return nil, s.apiError(errors.NotFoundf("album %q has no tags", input.ID))
	}
	return &AlbumTagsOutput{Body: AlbumTagsResponse{AlbumID: input.ID, Tags: tags}}, nil
}

func (s *Server) handleGetHierarchy(_ context.Context, input *HierarchyInput) (*HierarchyOutput, error) {
	report := s.services.Analyzer.DetectHierarchies()

	resp := HierarchyResponse{
		Edges:   report.Edges,
		Dropped: report.Dropped,
		Roots:   report.Roots(),
	}
	if resp.Roots == nil {
		resp.Roots = []string{}
	}
	if input.Tag != "" {
		tag := s.services.Analyzer.Normalize(input.Tag)
		resp.Relations = &TagRelations{
			Tag:       tag,
			Parents:   report.Parents(tag),
			Ancestors: report.Ancestors(tag),
			Children:  report.Children(tag),
		}
	}

	return &HierarchyOutput{Body: resp}, nil
}

func (s *Server) handleGetClusters(_ context.Context, input *ClustersInput) (*ClustersOutput, error) {
	minSize := input.MinSize
	if minSize == 0 {
		minSize = s.config.ClusterMinSize
	}

	clusters := s.services.Analyzer.Clusters(minSize, s.config.ClusterResolution)
	ids := make([]int, 0, len(clusters))
	for id := range clusters {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Cluster, 0, len(ids))
	for _, id := range ids {
		out = append(out, Cluster{ID: id, Tags: clusters[id]})
	}

	return &ClustersOutput{Body: ClustersResponse{Clusters: out}}, nil
}
