package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for tag documents.
//
// Tags are already canonical, so nothing is stemmed:
//  1. name and compact are keywords for exact, prefix and fuzzy term matching
//  2. tokens uses the simple analyzer for word matching inside compound tags
//  3. words is numeric for ranking
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()

	// Name - exact tag, stored for retrieval
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = keyword.Name
	nameFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Compact - separators removed, target of fuzzy lookups
	compactFieldMapping := bleve.NewTextFieldMapping()
	compactFieldMapping.Analyzer = keyword.Name
	compactFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("compact", compactFieldMapping)

	// Tokens - individual words
	tokensFieldMapping := bleve.NewTextFieldMapping()
	tokensFieldMapping.Analyzer = simple.Name
	tokensFieldMapping.Store = false
	tokensFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("tokens", tokensFieldMapping)

	wordsFieldMapping := bleve.NewNumericFieldMapping()
	wordsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("words", wordsFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
