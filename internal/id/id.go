// Package id generates prefixed identifiers for queued merges and history entries.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for engine identifiers.
const (
	PrefixMerge   = "merge"
	PrefixHistory = "hist"
)

// IDs are typed on the command line, so the alphabet skips '-' and '_'
// and look-alike characters.
const (
	alphabet = "23456789abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	size     = 12
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "merge-7fKq2mZpW9xa").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// Merge returns a new pending merge ID.
func Merge() (string, error) {
	return Generate(PrefixMerge)
}

// History returns a new merge history entry ID.
func History() (string, error) {
	return Generate(PrefixHistory)
}
