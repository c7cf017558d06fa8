package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForTier(t *testing.T) {
	tests := []struct {
		name     string
		tier     string
		projects int
		priority bool
	}{
		{"Free", "free", 1, false},
		{"Starter", "starter", 3, false},
		{"Pro", "pro", 10, false},
		{"Premium", "premium", 50, true},
		{"Enterprise", "enterprise", 500, true},
		{"Unknown falls back to free", "platinum", 1, false},
		{"Empty falls back to free", "", 1, false},
		{"Case insensitive", "PRO", 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits := ForTier(tt.tier)
			assert.Equal(t, tt.projects, limits.Projects)
			assert.Equal(t, tt.priority, limits.PrioritySupport)
		})
	}
}

func TestIsPaid(t *testing.T) {
	assert.False(t, IsPaid("free"))
	assert.False(t, IsPaid("unknown"))
	assert.True(t, IsPaid("starter"))
	assert.True(t, IsPaid("pro"))
	assert.True(t, IsPaid("premium"))
	assert.True(t, IsPaid("enterprise"))
}
