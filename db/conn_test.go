package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFilePath(t *testing.T) {
	tests := []struct {
		dsn  string
		want bool
	}{
		{"unmask.db", true},
		{"data/unmask.db", true},
		{":memory:", false},
		{"", false},
		{"file:test_1?mode=memory&cache=shared", false},
		{"file:unmask.db?_busy_timeout=5000", false},
		{"unmask.db?mode=memory", false},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, isFilePath(tt.dsn))
		})
	}
}

func TestNewTest_MemoryDatabase(t *testing.T) {
	d := NewTest(t)

	var n int64
	require.NoError(t, d.Table("users").Count(&n).Error)
	assert.Zero(t, n)
}
