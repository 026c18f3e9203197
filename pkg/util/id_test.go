package util

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	seen := map[string]bool{}

	for i := 0; i < 100; i++ {
		id, err := NewID(16)
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[0-9a-zA-Z]{16}$`), id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestStoredName(t *testing.T) {
	tests := []struct {
		original string
		suffix   string
	}{
		{original: "face.png", suffix: "_face.png"},
		{original: "My Photo.JPG", suffix: "_My_Photo.jpg"},
		{original: "../../etc/passwd.jpeg", suffix: "_passwd.jpeg"},
		{original: "C:\\Users\\me\\pic.jpg", suffix: "_pic.jpg"},
		{original: ".png", suffix: ".png"},
	}

	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			name, err := StoredName(tt.original)
			require.NoError(t, err)

			assert.True(t, strings.HasSuffix(name, tt.suffix), name)
			assert.NotContains(t, name, "/")
			assert.NotContains(t, name, "..")
		})
	}

	a, _ := StoredName("face.png")
	b, _ := StoredName("face.png")
	assert.NotEqual(t, a, b)
}
