// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)  → parses query params, writes JSON envelopes
//	Service (this layer)  → validates input, caches, de-duplicates, derives views
//	github.Client         → talks to the upstream APIs
//
// Services return apperror values and never see an http.ResponseWriter, so
// the same code backs both the HTTP server and the `fetch` CLI command.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/gh-profile-dashboard/internal/apperror"
	"github.com/sakif/gh-profile-dashboard/internal/cache"
)

// DefaultTTL is how long a fetched result is served from cache.
const DefaultTTL = time.Hour

// errFetchPanicked is reported to the observer when fetch panics.
var errFetchPanicked = errors.New("fetch panicked")

// CacheObserver receives coordinator events. metrics.CacheRecorder
// implements it; a nil observer is replaced with a no-op.
type CacheObserver interface {
	Hit()
	Miss()
	Rejected()
	Evicted()
	Fetched(err error)
}

type noopObserver struct{}

func (noopObserver) Hit()          {}
func (noopObserver) Miss()         {}
func (noopObserver) Rejected()     {}
func (noopObserver) Evicted()      {}
func (noopObserver) Fetched(error) {}

// CoordinatorConfig configures one Coordinator.
type CoordinatorConfig struct {
	// Name identifies the coordinator in logs and metrics.
	Name string
	// TTL is the freshness window. Zero means DefaultTTL.
	TTL time.Duration
	// MaxEntries bounds the cache with LRU eviction. Zero means unbounded.
	MaxEntries int
	// FailureMessage is the caller-facing text of apperror.FetchFailed.
	FailureMessage string
}

type coordinatorOptions struct {
	now      func() time.Time
	observer CacheObserver
}

// CoordinatorOption customises a Coordinator.
type CoordinatorOption func(*coordinatorOptions)

// WithClock replaces time.Now. Tests use it to step past the TTL.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(o *coordinatorOptions) { o.now = now }
}

// WithObserver reports hits, misses, rejections and fetch outcomes.
func WithObserver(obs CacheObserver) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// Coordinator serves fetch results from a TTL cache and allows at most one
// fetch per key at a time.
//
// For a given key a request sees exactly one of:
//   - apperror.ErrInProgress if a fetch for the key is running,
//   - the cached value if it was stored less than TTL ago,
//   - a new fetch, whose result is cached on success.
//
// The in-flight set and the cache are only touched while holding mu, so the
// check-then-mark step is atomic with respect to other requests. A
// successful result is cached and the key is released in the same critical
// section: a follow-up request never observes "not in flight, not cached"
// for a fetch that just succeeded.
type Coordinator[V any] struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
	store    *cache.Store[V]

	name           string
	failureMessage string
	now            func() time.Time
	observer       CacheObserver
	logger         *slog.Logger
}

// NewCoordinator builds a Coordinator with its own cache and in-flight set.
// Construct one per cached resource at startup and share it between handlers.
func NewCoordinator[V any](cfg CoordinatorConfig, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator[V] {
	o := coordinatorOptions{now: time.Now, observer: noopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.FailureMessage == "" {
		cfg.FailureMessage = "fetch failed"
	}

	c := &Coordinator[V]{
		inFlight:       make(map[string]struct{}),
		name:           cfg.Name,
		failureMessage: cfg.FailureMessage,
		now:            o.now,
		observer:       o.observer,
		logger:         logger.With(slog.String("cache", cfg.Name)),
	}
	c.store = cache.New[V](cache.Options{
		TTL:        cfg.TTL,
		MaxEntries: cfg.MaxEntries,
		OnEvict: func(key string) {
			c.observer.Evicted()
			c.logger.Debug("cache entry evicted", slog.String("key", key))
		},
	})
	return c
}

// Do returns the cached value for key or runs fetch to produce it.
//
// fetch runs on a context detached from ctx's cancellation: once a fetch has
// started it always finishes, even if the caller goes away. Its error is
// wrapped in apperror.FetchFailed and nothing is cached.
//
// A successful value is stamped with the time fetch returned, so it stays
// fresh for a full TTL after the upstream data was actually received.
func (c *Coordinator[V]) Do(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	var zero V

	c.mu.Lock()
	if _, busy := c.inFlight[key]; busy {
		c.mu.Unlock()
		c.observer.Rejected()
		c.logger.Info("rejecting duplicate in-flight request", slog.String("key", key))
		return zero, apperror.AlreadyInProgress(key)
	}
	if v, ok := c.store.Get(key, c.now()); ok {
		c.mu.Unlock()
		c.observer.Hit()
		c.logger.Debug("cache hit", slog.String("key", key))
		return v, nil
	}
	c.inFlight[key] = struct{}{}
	c.mu.Unlock()
	c.observer.Miss()

	// Release the key however fetch terminates, panics included.
	released, reported := false, false
	defer func() {
		if !reported {
			c.observer.Fetched(errFetchPanicked)
		}
		if !released {
			c.mu.Lock()
			delete(c.inFlight, key)
			c.mu.Unlock()
		}
	}()

	runID := xid.New().String()
	start := time.Now()
	c.logger.Info("fetch started", slog.String("key", key), slog.String("run", runID))

	v, err := fetch(context.WithoutCancel(ctx))
	reported = true
	c.observer.Fetched(err)
	if err != nil {
		c.logger.Error("fetch failed",
			slog.String("key", key),
			slog.String("run", runID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return zero, apperror.FetchFailed(c.failureMessage, err)
	}

	c.mu.Lock()
	c.store.Set(key, v, c.now())
	delete(c.inFlight, key)
	released = true
	c.mu.Unlock()

	c.logger.Info("fetch completed",
		slog.String("key", key),
		slog.String("run", runID),
		slog.Duration("duration", time.Since(start)),
	)
	return v, nil
}

// InFlight reports whether a fetch for key is currently running. Request
// handling never calls it; it exists for tests and operational inspection.
func (c *Coordinator[V]) InFlight(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[key]
	return ok
}

// Cached returns the fresh cached value for key without fetching or touching
// the in-flight set. Like InFlight it is for tests and inspection.
func (c *Coordinator[V]) Cached(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Get(key, c.now())
}

// Len reports how many entries the cache holds, stale ones included. Used by
// tests and inspection only.
func (c *Coordinator[V]) Len() int {
	return c.store.Len()
}
