package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStore_FreshWithinTTL(t *testing.T) {
	s := New[string](Options{TTL: time.Hour})
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s.Set("octocat", "payload", t0)

	tests := []struct {
		name   string
		at     time.Time
		wantOK bool
	}{
		{"same instant", t0, true},
		{"one nanosecond before expiry", t0.Add(time.Hour - time.Nanosecond), true},
		{"exactly at TTL is stale", t0.Add(time.Hour), false},
		{"well past TTL", t0.Add(3 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := s.Get("octocat", tt.at)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "payload", v)
			}
		})
	}
}

func TestStore_MissingKey(t *testing.T) {
	s := New[int](Options{TTL: time.Hour})

	v, ok := s.Get("nobody", time.Now())
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestStore_StaleEntryIsKeptUntilOverwritten(t *testing.T) {
	s := New[string](Options{TTL: time.Minute})
	t0 := time.Now()

	s.Set("u", "old", t0)
	_, ok := s.Get("u", t0.Add(2*time.Minute))
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len(), "stale entries are not removed on read")

	s.Set("u", "new", t0.Add(2*time.Minute))
	v, ok := s.Get("u", t0.Add(2*time.Minute))
	assert.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, s.Len())
}

func TestStore_UnboundedByDefault(t *testing.T) {
	s := New[int](Options{TTL: time.Hour})
	now := time.Now()

	for i := 0; i < 500; i++ {
		s.Set(fmt.Sprintf("user-%d", i), i, now)
	}
	assert.Equal(t, 500, s.Len())
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	s := New[int](Options{
		TTL:        time.Hour,
		MaxEntries: 2,
		OnEvict:    func(k string) { evicted = append(evicted, k) },
	})
	now := time.Now()

	s.Set("a", 1, now)
	s.Set("b", 2, now)
	// Touch "a" so "b" becomes the oldest.
	_, _ = s.Get("a", now)
	s.Set("c", 3, now)

	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, s.Len())

	_, ok := s.Get("b", now)
	assert.False(t, ok)
	v, ok := s.Get("a", now)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestStore_StaleReadDoesNotRefreshRecency(t *testing.T) {
	var evicted []string
	s := New[int](Options{
		TTL:        time.Minute,
		MaxEntries: 2,
		OnEvict:    func(k string) { evicted = append(evicted, k) },
	})
	t0 := time.Now()

	s.Set("a", 1, t0)
	s.Set("b", 2, t0.Add(2*time.Minute))
	// "a" is stale here, so reading it must not save it from eviction.
	_, ok := s.Get("a", t0.Add(2*time.Minute))
	assert.False(t, ok)
	s.Set("c", 3, t0.Add(2*time.Minute))

	assert.Equal(t, []string{"a"}, evicted)
}

func TestStore_OverwriteIsNotAnEviction(t *testing.T) {
	evictions := 0
	s := New[string](Options{
		TTL:        time.Hour,
		MaxEntries: 1,
		OnEvict:    func(string) { evictions++ },
	})
	now := time.Now()

	s.Set("octocat", "v1", now)
	s.Set("octocat", "v2", now)

	v, ok := s.Get("octocat", now)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 0, evictions)
	assert.Equal(t, 1, s.Len())
}
