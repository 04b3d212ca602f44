package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerRejectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRejections",
		Method:      http.MethodGet,
		Path:        "/api/v1/rejections",
		Summary:     "List rejections",
		Description: "Returns tag pairs that are never proposed for merging",
		Tags:        []string{"Rejections"},
	}, s.handleListRejections)

	huma.Register(s.api, huma.Operation{
		OperationID:   "rejectMerge",
		Method:        http.MethodPost,
		Path:          "/api/v1/rejections",
		Summary:       "Reject merge",
		Description:   "Rejects every pairing of the primary with the given tags",
		Tags:          []string{"Rejections"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleRejectMerge)

	huma.Register(s.api, huma.Operation{
		OperationID:   "clearRejection",
		Method:        http.MethodDelete,
		Path:          "/api/v1/rejections",
		Summary:       "Clear rejection",
		Description:   "Lifts the rejection of one tag pair",
		Tags:          []string{"Rejections"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleClearRejection)
}

// Rejection is one rejected tag pair, in sorted order.
type Rejection struct {
	A string `json:"a" doc:"First tag"`
	B string `json:"b" doc:"Second tag"`
}

// RejectionsResponse lists rejected pairs.
type RejectionsResponse struct {
	Rejections []Rejection `json:"rejections" doc:"Rejected pairs"`
}

// RejectionsOutput wraps the rejections for Huma.
type RejectionsOutput struct {
	Body RejectionsResponse
}

// RejectMergeInput wraps the reject request for Huma.
type RejectMergeInput struct {
	Body MergeRequest
}

// ClearRejectionInput names the pair to clear.
type ClearRejectionInput struct {
	A string `query:"a" required:"true" doc:"First tag"`
	B string `query:"b" required:"true" doc:"Second tag"`
}

func (s *Server) handleListRejections(_ context.Context, _ *struct{}) (*RejectionsOutput, error) {
	pairs := s.services.Consolidator.Rejected()
	out := make([]Rejection, len(pairs))
	for i, p := range pairs {
		out[i] = Rejection{A: p.A, B: p.B}
	}
	return &RejectionsOutput{Body: RejectionsResponse{Rejections: out}}, nil
}

func (s *Server) handleRejectMerge(_ context.Context, input *RejectMergeInput) (*struct{}, error) {
	if err := s.services.Consolidator.RejectMerge(input.Body.Primary, input.Body.Tags); err != nil {
		return nil, s.apiError(err)
	}
	return nil, nil
}

func (s *Server) handleClearRejection(_ context.Context, input *ClearRejectionInput) (*struct{}, error) {
	if err := s.services.Consolidator.ClearRejection(input.A, input.B); err != nil {
		return nil, s.apiError(err)
	}
	return nil, nil
}
