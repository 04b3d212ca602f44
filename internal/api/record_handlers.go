package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/tagcurator/internal/analyzer"
	"github.com/listenupapp/tagcurator/internal/domain"
)

func (s *Server) registerRecordRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "importRecords",
		Method:      http.MethodPost,
		Path:        "/api/v1/records",
		Summary:     "Import records",
		Description: "Replaces the album records, or adds to them with append, and rebuilds the analysis",
		Tags:        []string{"Records"},
	}, s.handleImportRecords)
}

// RecordRequest is one album row. A row without tags is kept and counted as
// skipped, an empty tags list is an untagged album.
type RecordRequest struct {
	AlbumID string   `json:"album_id" doc:"Album ID"`
	Tags    []string `json:"tags,omitempty" required:"false" doc:"Raw genre tags"`
}

// ImportRecordsRequest is the request body for importing records.
type ImportRecordsRequest struct {
	Records []RecordRequest `json:"records" doc:"Album records"`
	Append  bool            `json:"append,omitempty" doc:"Add to the stored records instead of replacing them"`
}

// ImportRecordsInput wraps the import request for Huma.
type ImportRecordsInput struct {
	Body ImportRecordsRequest
}

// BuildReportOutput wraps an analyzer build report for Huma.
type BuildReportOutput struct {
	Body analyzer.BuildReport
}

func (s *Server) handleImportRecords(ctx context.Context, input *ImportRecordsInput) (*BuildReportOutput, error) {
	records := make([]domain.Record, len(input.Body.Records))
	for i, r := range input.Body.Records {
		records[i] = domain.Record{AlbumID: r.AlbumID, Tags: r.Tags}
	}

	report, err := s.services.Curation.ImportRecords(ctx, records, input.Body.Append)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &BuildReportOutput{Body: report}, nil
}
