// Package cache is a process-local, time-bounded key/value store.
//
// Entries are never proactively expired: a lookup treats an entry as stale
// once now - fetchedAt >= TTL, and the next successful Set overwrites it.
// With MaxEntries == 0 the store is a plain map that grows with every
// distinct key ever written. With MaxEntries > 0 it is backed by a
// golang-lru simplelru and the least recently used key is evicted to make
// room.
package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Entry is one cached value together with the time it was fetched.
type Entry[V any] struct {
	Value     V
	FetchedAt time.Time
}

// Options configures a Store.
type Options struct {
	TTL        time.Duration
	MaxEntries int
	// OnEvict, if set, is called with the key of every capacity eviction.
	OnEvict func(key string)
}

// Store is safe for concurrent use.
type Store[V any] struct {
	mu  sync.Mutex
	ttl time.Duration

	// Exactly one of these is set.
	entries map[string]*Entry[V]
	lru     *simplelru.LRU[string, *Entry[V]]
}

func New[V any](opts Options) *Store[V] {
	s := &Store[V]{ttl: opts.TTL}
	if opts.MaxEntries <= 0 {
		s.entries = make(map[string]*Entry[V])
		return s
	}

	var onEvict simplelru.EvictCallback[string, *Entry[V]]
	if opts.OnEvict != nil {
		onEvict = func(key string, _ *Entry[V]) { opts.OnEvict(key) }
	}
	// NewLRU only fails for a non-positive size.
	s.lru, _ = simplelru.NewLRU[string, *Entry[V]](opts.MaxEntries, onEvict)
	return s
}

// Get returns the value for key if it exists and is still fresh at now.
// Only a fresh hit counts as a use for LRU ordering.
func (s *Store[V]) Get(key string, now time.Time) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	ent, ok := s.peek(key)
	if !ok || now.Sub(ent.FetchedAt) >= s.ttl {
		return zero, false
	}
	if s.lru != nil {
		s.lru.Get(key)
	}
	return ent.Value, true
}

// Set stores value under key, replacing any previous entry.
func (s *Store[V]) Set(key string, value V, fetchedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent := &Entry[V]{Value: value, FetchedAt: fetchedAt}
	if s.lru != nil {
		s.lru.Add(key, ent)
		return
	}
	s.entries[key] = ent
}

// Len reports how many entries are held, stale ones included.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lru != nil {
		return s.lru.Len()
	}
	return len(s.entries)
}

func (s *Store[V]) peek(key string) (*Entry[V], bool) {
	if s.lru != nil {
		return s.lru.Peek(key)
	}
	ent, ok := s.entries[key]
	return ent, ok
}
