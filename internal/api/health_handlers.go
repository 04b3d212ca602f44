package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status        string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	CorpusVersion uint64                     `json:"corpus_version" doc:"Corpus version the analyzer was built from"`
	Components    map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"store":  s.checkStore(ctx),
		"search": s.checkSearchIndex(),
		"similarity": {
			Status:  "healthy",
			Message: fmt.Sprintf("%d cached pairs", s.services.Similarity.CacheSize()),
		},
	}

	overall := "healthy"
	for _, c := range components {
		if c.Status == "unhealthy" {
			overall = "unhealthy"
			break
		}
		if c.Status == "degraded" {
			overall = "degraded"
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:        overall,
			CorpusVersion: s.services.Analyzer.CorpusVersion(),
			Components:    components,
		},
	}, nil
}

// checkStore verifies Badger answers a read.
func (s *Server) checkStore(ctx context.Context) ComponentHealth {
	start := time.Now()
	if _, err := s.store.ListRules(ctx); err != nil {
		return ComponentHealth{Status: "unhealthy", Message: err.Error()}
	}
	return ComponentHealth{Status: "healthy", Latency: time.Since(start).String()}
}

// checkSearchIndex compares the index size with the analyzer vocabulary.
func (s *Server) checkSearchIndex() ComponentHealth {
	count, err := s.services.Search.DocumentCount()
	if err != nil {
		return ComponentHealth{Status: "unhealthy", Message: err.Error()}
	}
	if tags := len(s.services.Analyzer.Tags()); int(count) != tags {
		return ComponentHealth{Status: "degraded", Message: "index is out of sync with the tag vocabulary"}
	}
	return ComponentHealth{Status: "healthy"}
}
