// Package search provides an in-memory Bleve index over canonical tag names.
// It backs fuzzy candidate lookup for the consolidator and free-text tag
// search for the command line.
package search

import "strings"

// TagDocument is the indexed form of one canonical tag.
// The document ID is the tag itself.
type TagDocument struct {
	// Name is the canonical tag, indexed as a single keyword.
	Name string `json:"name"`
	// Tokens is the tag split on spaces and hyphens for word matching.
	Tokens string `json:"tokens"`
	// Compact drops separators so "hip-hop", "hip hop" and "hiphop" meet.
	Compact string `json:"compact"`
	// Words is the token count, used to rank shorter tags first.
	Words int `json:"words"`
}

// NewTagDocument builds the document for a canonical tag.
func NewTagDocument(tag string) *TagDocument {
	tokens := tokenize(tag)
	return &TagDocument{
		Name:    tag,
		Tokens:  strings.Join(tokens, " "),
		Compact: compact(tag),
		Words:   len(tokens),
	}
}

// ToMap converts the document so field names match the mapping.
func (d *TagDocument) ToMap() map[string]any {
	return map[string]any{
		"name":    d.Name,
		"tokens":  d.Tokens,
		"compact": d.Compact,
		"words":   float64(d.Words),
	}
}

func tokenize(tag string) []string {
	return strings.FieldsFunc(tag, func(r rune) bool {
		return r == ' ' || r == '-'
	})
}

func compact(tag string) string {
	return strings.NewReplacer(" ", "", "-", "", "'", "").Replace(tag)
}
