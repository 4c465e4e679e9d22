package infra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2024, 6, 30, 9, 30, 0, 0, time.UTC)
	c := NewCache[[]string](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("BK0477", []string{"600519", "000858"})
	got, ok := c.Get("BK0477")
	assert.True(t, ok)
	assert.Equal(t, []string{"600519", "000858"}, got)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("BK0477")
	assert.False(t, ok)

	c.Cleanup()
	assert.Equal(t, 0, c.Len())
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	c := NewCache[int](0)
	c.now = func() time.Time { return now }

	c.Set("boards", 42)
	now = now.Add(365 * 24 * time.Hour)

	got, ok := c.Get("boards")
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	c.Invalidate("boards")
	_, ok = c.Get("boards")
	assert.False(t, ok)
}
