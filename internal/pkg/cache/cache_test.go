package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutGet(t *testing.T) {
	c := New[string]("test", time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("k", "v1")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v1", got)

	// Put always overwrites
	c.Put("k", "v2")
	got, ok = c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New[int]("test", 30*time.Millisecond)

	c.Put("k", 42)
	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)

	_, ok = c.Get("k")
	assert.False(t, ok, "stale entry must read as absent")
	assert.Equal(t, 0, c.Len(), "stale entry must be evicted by the read that discovers it")
}

func TestCache_PutResetsTimestamp(t *testing.T) {
	c := New[int]("test", 60*time.Millisecond)

	c.Put("k", 1)
	time.Sleep(40 * time.Millisecond)
	c.Put("k", 2)
	time.Sleep(40 * time.Millisecond)

	// 80ms after the first write but only 40ms after the overwrite.
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestCache_Clear(t *testing.T) {
	c := New[string]("test", time.Minute)
	c.Put("a", "1")
	c.Put("b", "2")

	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCache_ClearPrefix(t *testing.T) {
	c := New[string]("test", time.Minute)
	c.Put(ResultKey("spm software", "a", "b"), "one")
	c.Put(ResultKey("spm software", "c", "d"), "two")
	c.Put(ResultKey("other query", "a", "b"), "three")

	removed := c.ClearPrefix(NormalizeQuery("SPM Software") + ":")

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(ResultKey("other query", "a", "b"))
	assert.True(t, ok)
}

func TestCache_Sweep(t *testing.T) {
	c := New[int]("test", 30*time.Millisecond)
	c.Put("old", 1)
	time.Sleep(50 * time.Millisecond)
	c.Put("fresh", 2)

	evicted := c.Sweep()

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("fresh")
	assert.True(t, ok)
}

func TestKey_Stability(t *testing.T) {
	assert.Equal(t, Key("a", "b"), Key("a", "b"))
	assert.NotEqual(t, Key("a", "b"), Key("ab"))
	assert.NotEqual(t, Key("a", "b"), Key("b", "a"))
}

func TestResultKey_SensitiveToResultIdentity(t *testing.T) {
	// Same query over different candidate sets must not share a key.
	a := ResultKey("spm", "doc1", "doc2")
	b := ResultKey("spm", "doc1", "doc3")
	assert.NotEqual(t, a, b)

	// Query normalization: case and surrounding whitespace do not matter.
	assert.Equal(t, ResultKey("  SPM ", "doc1"), ResultKey("spm", "doc1"))
}

func TestSweeper(t *testing.T) {
	a := New[int]("a", 20*time.Millisecond)
	b := New[string]("b", time.Minute)
	a.Put("x", 1)
	b.Put("y", "z")

	s := NewSweeper(25*time.Millisecond, nil, a, b)
	s.Start()
	defer s.Stop()

	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, 0, a.Len(), "sweep must remove expired entries")
	assert.Equal(t, 1, b.Len(), "sweep must keep live entries")

	stats := s.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "a", stats[0].Name)
	assert.Equal(t, time.Minute.String(), stats[1].TTL)

	s.ClearAll()
	assert.Equal(t, 0, b.Len())
}

func TestSweeper_ClearQuery(t *testing.T) {
	intents := New[int]("understanding", time.Minute)
	orders := New[string]("ranking", time.Minute)

	intents.Put(NormalizeQuery("SPM Software"), 1)
	intents.Put(NormalizeQuery("other"), 2)
	orders.Put(ResultKey("spm software", "a", "b"), "x")
	orders.Put(ResultKey("other", "a", "b"), "y")

	s := NewSweeper(time.Minute, nil, intents, orders)

	removed := s.ClearQuery("  SPM Software ")

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, intents.Len())
	assert.Equal(t, 1, orders.Len())

	assert.Equal(t, 0, s.ClearQuery("   "), "blank query clears nothing")
}
