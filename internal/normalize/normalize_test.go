package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := Default()

	tests := []struct {
		input    string
		expected string
	}{
		// Case folding and whitespace
		{"Prog Metal", "prog metal"},
		{"  PROG   metal ", "prog metal"},
		{"prog_metal", "prog metal"},
		{"Prog. Metal!", "prog metal"},
		// Diacritics
		{"Café Jazz", "cafe jazz"},
		{"Motörhead", "motorhead"},
		// Hyphenation
		{"Hip Hop", "hip-hop"},
		{"hiphop", "hip-hop"},
		{"HIP-HOP", "hip-hop"},
		{"alternative hip hop", "alternative hip-hop"},
		{"Post - Rock", "post-rock"},
		{"lofi", "lo-fi"},
		{"trip hop", "trip-hop"},
		// Misspellings
		{"Progresive Metal", "progressive metal"},
		{"psychadelic rock", "psychedelic rock"},
		// Aliases
		{"DnB", "drum and bass"},
		{"Drum & Bass", "drum and bass"},
		{"R and B", "r&b"},
		// Edge cases
		{"", ""},
		{"   ", ""},
		{"--leading--", "leading"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := Default()
	inputs := []string{
		"Prog Metal", "Hip Hop", "hip hop hip hop", "Progresive Rock", "DnB",
		"Post - Rock", "Singer Songwriter", "Café Jazz", "k pop", "rock & roll",
	}

	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestNormalizeList(t *testing.T) {
	n := Default()

	tests := []struct {
		input    string
		expected []string
	}{
		{"Rock", []string{"rock"}},
		{"Rock / Pop", []string{"rock", "pop"}},
		{"Rock, Pop; Jazz", []string{"rock", "pop", "jazz"}},
		{"Rock and Pop", []string{"rock", "pop"}},
		{"Experimental-Ambient", []string{"experimental", "ambient"}},
		{"Rock & Roll", []string{"rock & roll"}},
		{"Rock/rock/ROCK", []string{"rock"}},
		{"Soul & Funk / Soul", []string{"soul", "funk"}},
		{"/ ,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.NormalizeList(tt.input))
		})
	}
}

func TestNew_CustomTables(t *testing.T) {
	n := New(Tables{
		Aliases:      map[string]string{"prog metal": "progressive metal"},
		Misspellings: map[string]string{"mettal": "metal"},
	})

	assert.Equal(t, "progressive metal", n.Normalize("Prog Mettal"))
	assert.Equal(t, "hip hop", n.Normalize("Hip Hop"), "no hyphenation table configured")
}
