// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyComposition(t *testing.T) {
	assert.Equal(t, Key("search", "zh", "信義", "5"), Key("search", "zh", "信義", "5"))
	assert.NotEqual(t, Key("search", "zh", "信義"), Key("summary", "zh", "信義"))
	assert.NotEqual(t, Key("search", "zh", "a b"), Key("search", "zh a", "b"))
	assert.Equal(t, "summary", Key("summary"))
}

func TestSetThenGet(t *testing.T) {
	c := New(time.Hour)
	c.Set("k", []string{"Taipei"})

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []string{"Taipei"}, v)
}

func TestGetMissing(t *testing.T) {
	c := New(time.Hour)
	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestExpiryOnRead(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewWithClock(24*time.Hour, func() time.Time { return clock })

	c.Set("k", "v")

	// Just inside the TTL.
	clock = clock.Add(24 * time.Hour)
	_, ok := c.Get("k")
	assert.True(t, ok)

	// Past the TTL: absent, and the entry is evicted.
	clock = clock.Add(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLMeasuredFromInsertion(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewWithClock(time.Hour, func() time.Time { return clock })

	c.Set("k", 1)
	clock = clock.Add(30 * time.Minute)

	// Reads do not extend the lifetime.
	_, ok := c.Get("k")
	require.True(t, ok)
	clock = clock.Add(31 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestSetResetsInsertionTime(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewWithClock(time.Hour, func() time.Time { return clock })

	c.Set("k", "old")
	clock = clock.Add(50 * time.Minute)
	c.Set("k", "new")
	clock = clock.Add(50 * time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestNegativeResultCached(t *testing.T) {
	c := New(time.Hour)
	c.Set("empty", []string(nil))

	v, ok := c.Get("empty")
	require.True(t, ok)
	assert.Nil(t, v.([]string))
}
