package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/tagcurator/internal/domain"
)

func (s *Server) registerMergeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMergeSuggestions",
		Method:      http.MethodGet,
		Path:        "/api/v1/merges/suggestions",
		Summary:     "Merge suggestions",
		Description: "Lists merge suggestions from rules and similarity, rule-sourced first",
		Tags:        []string{"Merges"},
	}, s.handleListSuggestions)

	huma.Register(s.api, huma.Operation{
		OperationID: "previewMerge",
		Method:      http.MethodPost,
		Path:        "/api/v1/merges/preview",
		Summary:     "Preview merge",
		Description: "Shows the effect and conflicts of a merge without queuing it",
		Tags:        []string{"Merges"},
	}, s.handlePreviewMerge)

	huma.Register(s.api, huma.Operation{
		OperationID:   "queueMerge",
		Method:        http.MethodPost,
		Path:          "/api/v1/merges",
		Summary:       "Queue merge",
		Description:   "Queues a merge for the next apply. Conflicts fail with 409 unless forced",
		Tags:          []string{"Merges"},
		DefaultStatus: http.StatusCreated,
	}, s.handleQueueMerge)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPendingMerges",
		Method:      http.MethodGet,
		Path:        "/api/v1/merges/pending",
		Summary:     "Pending merges",
		Description: "Returns the merge queue in insertion order",
		Tags:        []string{"Merges"},
	}, s.handleListPending)

	huma.Register(s.api, huma.Operation{
		OperationID: "dequeueMerge",
		Method:      http.MethodDelete,
		Path:        "/api/v1/merges/{id}",
		Summary:     "Dequeue merge",
		Description: "Removes a pending merge; it may be queued again later",
		Tags:        []string{"Merges"},
	}, s.handleDequeueMerge)

	huma.Register(s.api, huma.Operation{
		OperationID: "rejectPendingMerge",
		Method:      http.MethodPost,
		Path:        "/api/v1/merges/{id}/reject",
		Summary:     "Reject pending merge",
		Description: "Removes a pending merge and stops suggesting its tag pairs",
		Tags:        []string{"Merges"},
	}, s.handleRejectPendingMerge)

	huma.Register(s.api, huma.Operation{
		OperationID: "applyMerges",
		Method:      http.MethodPost,
		Path:        "/api/v1/merges/apply",
		Summary:     "Apply merges",
		Description: "Applies the whole queue as one commit and persists the rewritten corpus",
		Tags:        []string{"Merges"},
	}, s.handleApplyMerges)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMergeHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/merges/history",
		Summary:     "Merge history",
		Description: "Lists applied merges, oldest first",
		Tags:        []string{"Merges"},
	}, s.handleListHistory)
}

// === DTOs ===

// SuggestionsResponse lists merge suggestions.
type SuggestionsResponse struct {
	Suggestions []domain.MergeSuggestion `json:"suggestions" doc:"Suggestions, rule-sourced first"`
}

// SuggestionsOutput wraps the suggestions response for Huma.
type SuggestionsOutput struct {
	Body SuggestionsResponse
}

// MergeRequest names a primary and the tags it absorbs.
type MergeRequest struct {
	Primary string   `json:"primary" minLength:"1" maxLength:"200" doc:"Tag that survives the merge"`
	Tags    []string `json:"tags" minItems:"1" doc:"Tags absorbed into the primary"`
}

// PreviewMergeInput wraps the preview request for Huma.
type PreviewMergeInput struct {
	Body MergeRequest
}

// PreviewResponse is a merge preview plus whether force could still queue it.
type PreviewResponse struct {
	domain.MergePreview
	Blocked bool `json:"blocked" doc:"True when a conflict cannot be overridden with force"`
}

// PreviewOutput wraps a merge preview for Huma.
type PreviewOutput struct {
	Body PreviewResponse
}

// QueueMergeRequest is the request body for queuing a merge.
type QueueMergeRequest struct {
	MergeRequest
	Force         bool    `json:"force,omitempty" doc:"Override frequency and relationship conflicts"`
	CorpusVersion *uint64 `json:"corpus_version,omitempty" doc:"Corpus version of the preview being queued; a mismatch fails with 409"`
}

// QueueMergeInput wraps the queue request for Huma.
type QueueMergeInput struct {
	Body QueueMergeRequest
}

// PendingMergeOutput wraps one pending merge for Huma.
type PendingMergeOutput struct {
	Body *domain.PendingMerge
}

// PendingMergesResponse lists the merge queue.
type PendingMergesResponse struct {
	Merges []domain.PendingMerge `json:"merges" doc:"Pending merges in insertion order"`
}

// PendingMergesOutput wraps the queue for Huma.
type PendingMergesOutput struct {
	Body PendingMergesResponse
}

// MergeIDInput contains the ID of a pending merge.
type MergeIDInput struct {
	ID string `path:"id" doc:"Pending merge ID"`
}

// ApplyOutput wraps an apply report for Huma.
type ApplyOutput struct {
	Body *domain.ApplyReport
}

// HistoryResponse lists applied merges.
type HistoryResponse struct {
	History []domain.MergeHistoryEntry `json:"history" doc:"Applied merges, oldest first"`
}

// HistoryOutput wraps the history for Huma.
type HistoryOutput struct {
	Body HistoryResponse
}

// === Handlers ===

func (s *Server) handleListSuggestions(_ context.Context, _ *struct{}) (*SuggestionsOutput, error) {
	return &SuggestionsOutput{Body: SuggestionsResponse{Suggestions: s.services.Consolidator.SuggestMerges()}}, nil
}

func (s *Server) handlePreviewMerge(_ context.Context, input *PreviewMergeInput) (*PreviewOutput, error) {
	preview, err := s.services.Consolidator.PreviewMerge(input.Body.Primary, input.Body.Tags)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &PreviewOutput{Body: PreviewResponse{MergePreview: *preview, Blocked: preview.Blocked()}}, nil
}

func (s *Server) handleQueueMerge(_ context.Context, input *QueueMergeInput) (*PendingMergeOutput, error) {
	c := s.services.Consolidator
	req := input.Body

	// Without a corpus version the merge is previewed and queued in one step.
	if req.CorpusVersion == nil {
		pm, err := c.QueueMerge(req.Primary, req.Tags, req.Force)
		if err != nil {
			return nil, s.apiError(err)
		}
		return &PendingMergeOutput{Body: pm}, nil
	}

	preview, err := c.PreviewMerge(req.Primary, req.Tags)
	if err != nil {
		return nil, s.apiError(err)
	}
	preview.CorpusVersion = *req.CorpusVersion

	pm, err := c.QueuePreview(preview, req.Force)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &PendingMergeOutput{Body: pm}, nil
}

func (s *Server) handleListPending(_ context.Context, _ *struct{}) (*PendingMergesOutput, error) {
	return &PendingMergesOutput{Body: PendingMergesResponse{Merges: s.services.Consolidator.PendingMerges()}}, nil
}

func (s *Server) handleDequeueMerge(_ context.Context, input *MergeIDInput) (*PendingMergeOutput, error) {
	pm, err := s.services.Consolidator.DequeueMerge(input.ID)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &PendingMergeOutput{Body: pm}, nil
}

func (s *Server) handleRejectPendingMerge(_ context.Context, input *MergeIDInput) (*PendingMergeOutput, error) {
	pm, err := s.services.Consolidator.RejectPendingMerge(input.ID)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &PendingMergeOutput{Body: pm}, nil
}

func (s *Server) handleApplyMerges(ctx context.Context, _ *struct{}) (*ApplyOutput, error) {
	report, err := s.services.Curation.ApplyMerges(ctx)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &ApplyOutput{Body: report}, nil
}

func (s *Server) handleListHistory(_ context.Context, _ *struct{}) (*HistoryOutput, error) {
	return &HistoryOutput{Body: HistoryResponse{History: s.services.Consolidator.MergeHistory()}}, nil
}
