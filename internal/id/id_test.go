package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	tests := []struct {
		name string
		gen  func() (string, error)
		want string
	}{
		{"merge", Merge, PrefixMerge},
		{"history", History, PrefixHistory},
		{"custom", func() (string, error) { return Generate("custom") }, "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.gen()
			require.NoError(t, err)

			require.True(t, strings.HasPrefix(id, tt.want+"-"))
			part := strings.TrimPrefix(id, tt.want+"-")
			assert.Len(t, part, size)

			for _, char := range part {
				assert.True(t, strings.ContainsRune(alphabet, char),
					"Character %c should come from the ID alphabet", char)
			}
		})
	}
}

func BenchmarkGenerate(b *testing.B) {
	for b.Loop() {
		_, _ = Generate("bench")
	}
}
