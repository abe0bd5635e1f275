package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemory(time.Minute, time.Minute)
	defer s.Close()

	_, ok := s.Get("missing")
	assert.False(t, ok, "cold miss must be tolerated")

	s.Put("k", []byte("report bytes"))
	got, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("report bytes"), got)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemory(10*time.Millisecond, time.Hour)
	defer s.Close()

	s.Put("k", []byte("v"))
	time.Sleep(30 * time.Millisecond)

	_, ok := s.Get("k")
	assert.False(t, ok, "expired entry must not be served even before the sweeper runs")
}

func TestMemoryStore_SweeperRemovesExpired(t *testing.T) {
	s := NewMemory(5*time.Millisecond, 10*time.Millisecond)
	defer s.Close()

	s.Put("k", []byte("v"))
	time.Sleep(50 * time.Millisecond)

	ms := s.(*memoryStore)
	ms.mu.RLock()
	n := len(ms.entries)
	ms.mu.RUnlock()
	assert.Zero(t, n, "sweeper must evict expired entries")
}

func TestKey_StableAndDistinct(t *testing.T) {
	assert.Equal(t, Key("a", "b"), Key("a", "b"))
	assert.NotEqual(t, Key("a", "b"), Key("ab"))
	assert.NotEqual(t, Key("a", "b"), Key("b", "a"))
}
