package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// Store is an advisory byte cache. Callers must tolerate cold misses;
// nothing in the analysis pipeline depends on a hit for correctness.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte)
	Close()
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	done    chan struct{}
	once    sync.Once
}

// NewMemory builds an in-memory Store whose entries expire after ttl.
// A background sweeper removes expired entries every sweepInterval so the
// map does not grow unbounded between reads. Close stops the sweeper.
func NewMemory(ttl, sweepInterval time.Duration) Store {
	s := &memoryStore{
		ttl:     ttl,
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	go s.sweep(sweepInterval)
	return s
}

func (s *memoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (s *memoryStore) Put(key string, value []byte) {
	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
}

func (s *memoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *memoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for key, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Key derives a stable cache key from its parts.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
