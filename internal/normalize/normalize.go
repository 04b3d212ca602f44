// Package normalize maps raw tag strings to canonical tags.
//
// Canonical form is lowercase (Unicode case folded), free of diacritics,
// words separated by a single space, with hyphenated compounds kept joined:
//
//	"Prog  Metal"      -> "prog metal"
//	"Hip Hop"          -> "hip-hop"
//	"Progresive Rock"  -> "progressive rock"
//	"Café_Jazz"        -> "cafe jazz"
//
// Normalization is pure and idempotent: Normalize(Normalize(s)) == Normalize(s).
package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is the contract every engine component consumes.
type Normalizer interface {
	// Normalize maps a raw string to one canonical tag ("" when nothing survives).
	Normalize(raw string) string
	// NormalizeList maps a raw string to the canonical tags it decomposes into.
	NormalizeList(raw string) []string
}

var (
	// Anything that is not a letter, digit, whitespace, hyphen, ampersand or apostrophe.
	disallowedRe = regexp.MustCompile(`[^\p{L}\p{N}\s&'-]+`)
	// Hyphens with surrounding whitespace ("post - rock").
	spacedHyphenRe = regexp.MustCompile(`\s*-+\s*`)
	// Separators that split one raw string into several tags.
	listSeparatorRe = regexp.MustCompile(`\s*[/,;|]\s*`)
)

// RuleTable is the default table-driven Normalizer.
type RuleTable struct {
	// Hyphenations joins spaced or unspaced variants into the hyphenated
	// canonical spelling, keyed by the space-separated form ("hip hop" -> "hip-hop").
	hyphenations []hyphenation
	// Misspellings replaces single tokens ("progresive" -> "progressive").
	misspellings map[string]string
	// Aliases replaces a whole canonical tag ("dnb" -> "drum and bass").
	aliases map[string]string
	// Decompositions splits a whole canonical tag into several atomic tags.
	decompositions map[string][]string
}

type hyphenation struct {
	pattern *regexp.Regexp
	joined  string
}

// Tables configures a RuleTable.
type Tables struct {
	Hyphenations   map[string]string
	Misspellings   map[string]string
	Aliases        map[string]string
	Decompositions map[string][]string
}

// New creates a RuleTable from the given tables.
// Table keys are expected in canonical (folded, single spaced) form.
func New(t Tables) *RuleTable {
	rt := &RuleTable{
		misspellings:   copyMap(t.Misspellings),
		aliases:        copyMap(t.Aliases),
		decompositions: make(map[string][]string, len(t.Decompositions)),
	}

	// Sort keys so longer phrases win and construction is deterministic.
	keys := make([]string, 0, len(t.Hyphenations))
	for k := range t.Hyphenations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		words := strings.Fields(k)
		for i := range words {
			words[i] = regexp.QuoteMeta(words[i])
		}
		// "hip hop", "hip-hop" and "hiphop" all collapse to the joined form.
		expr := `(^|\s)` + strings.Join(words, `[\s-]?`) + `($|\s)`
		rt.hyphenations = append(rt.hyphenations, hyphenation{
			pattern: regexp.MustCompile(expr),
			joined:  "${1}" + t.Hyphenations[k] + "${2}",
		})
	}

	for k, parts := range t.Decompositions {
		cp := make([]string, len(parts))
		copy(cp, parts)
		rt.decompositions[k] = cp
	}

	return rt
}

// Default returns a RuleTable loaded with the built-in music tables.
func Default() *RuleTable {
	return New(Tables{
		Hyphenations:   DefaultHyphenations,
		Misspellings:   DefaultMisspellings,
		Aliases:        DefaultAliases,
		Decompositions: DefaultDecompositions,
	})
}

// Normalize maps raw to a single canonical tag.
func (rt *RuleTable) Normalize(raw string) string {
	s := fold(raw)
	if s == "" {
		return ""
	}

	// Token level misspelling fixes.
	if len(rt.misspellings) > 0 {
		tokens := strings.Fields(s)
		for i, tok := range tokens {
			if fixed, ok := rt.misspellings[tok]; ok {
				tokens[i] = fixed
			}
		}
		s = strings.Join(tokens, " ")
	}

	for _, h := range rt.hyphenations {
		// Replace twice: adjacent matches share the separating space.
		s = h.pattern.ReplaceAllString(s, h.joined)
		s = h.pattern.ReplaceAllString(s, h.joined)
	}

	if alias, ok := rt.aliases[s]; ok {
		s = alias
	}

	return s
}

// NormalizeList splits raw on list separators, normalizes each part, applies
// the decomposition table, and returns de-duplicated tags in input order.
func (rt *RuleTable) NormalizeList(raw string) []string {
	parts := listSeparatorRe.Split(raw, -1)
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))

	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	for _, p := range parts {
		tag := rt.Normalize(p)
		if atoms, ok := rt.decompositions[tag]; ok {
			for _, a := range atoms {
				add(rt.Normalize(a))
			}
			continue
		}
		add(tag)
	}

	return out
}

// fold performs the table independent part of normalization.
// A Caser is stateful, so each call gets its own.
func fold(raw string) string {
	// Decompose accented characters and drop the combining marks.
	s := norm.NFKD.String(raw)
	s = strings.Map(func(r rune) rune {
		if r == 0 || unicode.Is(unicode.Mn, r) {
			return -1
		}
		if r == '_' {
			return ' '
		}
		return r
	}, s)

	s = cases.Fold().String(s)
	s = disallowedRe.ReplaceAllString(s, " ")
	s = spacedHyphenRe.ReplaceAllString(s, "-")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, "-' ")
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
