package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/tagcurator/internal/domain"
)

func (s *Server) registerRuleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRules",
		Method:      http.MethodGet,
		Path:        "/api/v1/rules",
		Summary:     "List rules",
		Description: "Returns consolidation rules in evaluation order",
		Tags:        []string{"Rules"},
	}, s.handleListRules)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRule",
		Method:        http.MethodPost,
		Path:          "/api/v1/rules",
		Summary:       "Create rule",
		Description:   "Stores a rule mapping tags that match a pattern onto a replacement",
		Tags:          []string{"Rules"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRule)
}

// RulesResponse lists consolidation rules.
type RulesResponse struct {
	Rules []domain.ConsolidationRule `json:"rules" doc:"Rules in evaluation order"`
}

// RulesOutput wraps the rules response for Huma.
type RulesOutput struct {
	Body RulesResponse
}

// CreateRuleRequest is the request body for creating a rule.
type CreateRuleRequest struct {
	Pattern       string  `json:"pattern" minLength:"1" maxLength:"500" doc:"Literal tag or regular expression matched against the whole canonical tag"`
	Replacement   string  `json:"replacement" minLength:"1" maxLength:"200" doc:"Primary tag"`
	MinSimilarity float64 `json:"min_similarity,omitempty" minimum:"0" maximum:"1" doc:"Only apply when the tags are at least this similar"`
}

// CreateRuleInput wraps the create rule request for Huma.
type CreateRuleInput struct {
	Body CreateRuleRequest
}

// RuleOutput wraps one rule for Huma.
type RuleOutput struct {
	Body domain.ConsolidationRule
}

func (s *Server) handleListRules(_ context.Context, _ *struct{}) (*RulesOutput, error) {
	return &RulesOutput{Body: RulesResponse{Rules: s.services.Consolidator.Rules()}}, nil
}

func (s *Server) handleCreateRule(ctx context.Context, input *CreateRuleInput) (*RuleOutput, error) {
	c := s.services.Consolidator
	if err := c.AddRule(input.Body.Pattern, input.Body.Replacement, input.Body.MinSimilarity); err != nil {
		return nil, s.apiError(err)
	}

	rules := c.Rules()
	rule := rules[len(rules)-1]
	if err := s.store.SaveRule(ctx, rule); err != nil {
		return nil, s.apiError(err)
	}

	return &RuleOutput{Body: rule}, nil
}
