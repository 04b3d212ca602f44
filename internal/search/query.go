package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// maxFuzziness is the largest edit distance Bleve's fuzzy searcher supports.
const maxFuzziness = 2

// SearchParams configures a tag search.
type SearchParams struct {
	Query  string // Free text; empty lists every tag
	Limit  int
	Offset int
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{Limit: 20}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is one matching tag.
type SearchHit struct {
	Tag   string  `json:"tag"`
	Score float64 `json:"score"`
}

// Fuzzy returns indexed tags within fuzziness edits of tag once separators
// are removed, best match first, excluding tag itself.
func (s *TagIndex) Fuzzy(tag string, fuzziness, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	fuzziness = max(0, min(fuzziness, maxFuzziness))

	fq := bleve.NewFuzzyQuery(compact(tag))
	fq.SetFuzziness(fuzziness)
	fq.SetField("compact")

	req := bleve.NewSearchRequestOptions(fq, limit+1, 0, false)
	req.SortBy([]string{"-_score", "_id"})

	s.mu.RLock()
	res, err := s.index.Search(req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("fuzzy search %q: %w", tag, err)
	}

	out := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if hit.ID == tag {
			continue
		}
		out = append(out, hit.ID)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Search runs a free-text tag search.
func (s *TagIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	if strings.TrimSpace(params.Query) == "" {
		req.SortBy([]string{"_id"})
	} else {
		req.SortBy([]string{"-_score", "words", "_id"})
	}

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		result.Hits = append(result.Hits, SearchHit{Tag: hit.ID, Score: hit.Score})
	}
	return result, nil
}

// buildSearchQuery matches the query as an exact tag, as words inside
// compound tags, as a typo of a tag, and as a tag prefix.
func buildSearchQuery(params SearchParams) query.Query {
	q := strings.ToLower(strings.TrimSpace(params.Query))
	if q == "" {
		return bleve.NewMatchAllQuery()
	}

	exact := bleve.NewTermQuery(q)
	exact.SetField("name")
	exact.SetBoost(3.0)

	words := bleve.NewMatchQuery(q)
	words.SetField("tokens")
	words.SetBoost(1.5)

	fuzzy := bleve.NewFuzzyQuery(compact(q))
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("compact")
	fuzzy.SetBoost(0.8)

	queries := []query.Query{exact, words, fuzzy}

	// Prefix query for autocomplete (minimum 2 chars)
	if len(q) >= 2 {
		prefix := bleve.NewPrefixQuery(q)
		prefix.SetField("name")
		prefix.SetBoost(0.5)
		queries = append(queries, prefix)
	}

	return bleve.NewDisjunctionQuery(queries...)
}
