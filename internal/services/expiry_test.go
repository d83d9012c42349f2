package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryPolicy_ExpiresAt(t *testing.T) {
	cutoff := time.Date(2026, 2, 15, 23, 59, 59, 0, time.UTC)
	policy := NewExpiryPolicy(cutoff, 20)

	t.Run("window wins far from cutoff", func(t *testing.T) {
		createdAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		got := policy.ExpiresAt(createdAt)
		assert.Equal(t, createdAt.Add(20*24*time.Hour), got)
	})

	t.Run("cutoff wins near the cutoff", func(t *testing.T) {
		createdAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
		got := policy.ExpiresAt(createdAt)
		assert.Equal(t, cutoff, got)
	})

	t.Run("created after cutoff expires at cutoff", func(t *testing.T) {
		createdAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		got := policy.ExpiresAt(createdAt)
		assert.Equal(t, cutoff, got)
	})
}

func TestParseExpiryPolicy(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		policy, err := ParseExpiryPolicy("2026-02-15T23:59:59Z", 20)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 2, 15, 23, 59, 59, 0, time.UTC), policy.Cutoff)
		assert.Equal(t, 20*24*time.Hour, policy.Window)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		_, err := ParseExpiryPolicy("15-02-2026", 20)
		assert.Error(t, err)
	})

	t.Run("non-positive window", func(t *testing.T) {
		_, err := ParseExpiryPolicy("2026-02-15T23:59:59Z", 0)
		assert.Error(t, err)
	})
}
