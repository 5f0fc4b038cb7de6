package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gh-profile-dashboard/internal/apperror"
	"github.com/sakif/gh-profile-dashboard/internal/retry"
)

// fakeUpstream serves both the GitHub API and the contributions API from
// one httptest server. Each path can be given a queue of status codes; once
// the queue is empty the path answers 200 with its body.
type fakeUpstream struct {
	mu       sync.Mutex
	statuses map[string][]int
	bodies   map[string]string
	hits     map[string]int
	auth     []string
	queries  map[string]string
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		statuses: map[string][]int{},
		bodies: map[string]string{
			"/users/octocat":                       `{"login":"octocat","id":583231,"created_at":"2011-01-25T18:44:36Z"}`,
			"/users/octocat/repos":                 `[{"name":"Hello-World","stargazers_count":3},{"name":"Spoon-Knife","stargazers_count":5}]`,
			"/v4/octocat":                          `{"total":{"2024":10},"contributions":[{"date":"2024-01-01","count":10,"level":2}]}`,
			"/repos/octocat/Hello-World/languages": `{"Go":750,"Shell":250}`,
		},
		hits:    map[string]int{},
		queries: map[string]string{},
	}
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.queries[r.URL.Path] = r.URL.RawQuery
	var status int
	if q := f.statuses[r.URL.Path]; len(q) > 0 {
		status, f.statuses[r.URL.Path] = q[0], q[1:]
	}
	body, ok := f.bodies[r.URL.Path]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"upstream says no"}`))
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *fakeUpstream) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func newTestClient(t *testing.T, f *fakeUpstream, tokens string, maxRetries int) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIBaseURL = srv.URL
	cfg.ContributionsBaseURL = srv.URL + "/"

	policy := retry.DefaultPolicy()
	policy.MaxRetries = maxRetries
	policy.InitialDelay = time.Millisecond

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewClient(cfg, StaticToken(tokens), policy, logger)
}

func TestAggregate_CombinesThreeResources(t *testing.T) {
	f := newFakeUpstream()
	c := newTestClient(t, f, "ghp_test", 1)

	p, err := c.Aggregate(context.Background(), "octocat")
	require.NoError(t, err)

	assert.JSONEq(t, f.bodies["/users/octocat"], string(p.User))
	assert.JSONEq(t, f.bodies["/users/octocat/repos"], string(p.Repos))
	assert.JSONEq(t, f.bodies["/v4/octocat"], string(p.Contributions))

	assert.Equal(t, "per_page=100", f.queries["/users/octocat/repos"])
	for _, h := range f.auth {
		assert.Equal(t, "Bearer ghp_test", h)
	}
}

func TestAggregate_SendsBearerHeaderEvenWithEmptyToken(t *testing.T) {
	f := newFakeUpstream()
	c := newTestClient(t, f, "", 0)

	_, err := c.Aggregate(context.Background(), "octocat")
	require.NoError(t, err)

	require.Len(t, f.auth, 3)
	for _, h := range f.auth {
		assert.Equal(t, "Bearer", strings.TrimSpace(h))
	}
}

func TestAggregate_ReposFailureFailsWholeAggregation(t *testing.T) {
	f := newFakeUpstream()
	f.statuses["/users/octocat/repos"] = []int{http.StatusForbidden}
	c := newTestClient(t, f, "tok", 1)

	p, err := c.Aggregate(context.Background(), "octocat")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstream))
	assert.Nil(t, p.User)
	assert.Nil(t, p.Repos)
	assert.Nil(t, p.Contributions)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, 1, f.hitCount("/users/octocat/repos"), "403 is not retried")
}

func TestAggregate_RetriesServerFaultOnce(t *testing.T) {
	f := newFakeUpstream()
	f.statuses["/users/octocat"] = []int{http.StatusInternalServerError}
	c := newTestClient(t, f, "tok", 1)

	_, err := c.Aggregate(context.Background(), "octocat")

	require.NoError(t, err)
	assert.Equal(t, 2, f.hitCount("/users/octocat"))
}

func TestAggregate_ServerFaultExhaustsBudget(t *testing.T) {
	f := newFakeUpstream()
	f.statuses["/v4/octocat"] = []int{500, 500, 500}
	c := newTestClient(t, f, "tok", 1)

	_, err := c.Aggregate(context.Background(), "octocat")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, 2, f.hitCount("/v4/octocat"))
}

func TestAggregate_MalformedBodyIsNotRetried(t *testing.T) {
	f := newFakeUpstream()
	f.bodies["/users/octocat"] = `{"login":`
	c := newTestClient(t, f, "tok", 3)

	_, err := c.Aggregate(context.Background(), "octocat")

	require.Error(t, err)
	assert.Equal(t, 1, f.hitCount("/users/octocat"))
}

func TestLanguages(t *testing.T) {
	f := newFakeUpstream()
	c := newTestClient(t, f, "tok", 0)

	langs, err := c.Languages(context.Background(), "octocat", "Hello-World")

	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Go": 750, "Shell": 250}, langs)
}

type countingObserver struct {
	calls   atomic.Int32
	retries atomic.Int32
}

func (o *countingObserver) ObserveUpstream(string, int, time.Duration) { o.calls.Add(1) }
func (o *countingObserver) ObserveRetry(string)                        { o.retries.Add(1) }

func TestClient_ReportsToObserver(t *testing.T) {
	f := newFakeUpstream()
	f.statuses["/users/octocat"] = []int{500}
	srv := httptest.NewServer(f)
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.APIBaseURL = srv.URL
	cfg.ContributionsBaseURL = srv.URL
	policy := retry.DefaultPolicy()
	policy.InitialDelay = time.Millisecond
	obs := &countingObserver{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	c := NewClient(cfg, StaticToken("tok"), policy, logger, WithObserver(obs))
	_, err := c.Aggregate(context.Background(), "octocat")

	require.NoError(t, err)
	assert.Equal(t, int32(4), obs.calls.Load())
	assert.Equal(t, int32(1), obs.retries.Load())
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Resource: ResourceUser, StatusCode: 502, URL: "https://api.github.com/users/x"}

	assert.Equal(t, 502, err.HTTPStatus())
	assert.Contains(t, err.Error(), "502")
	assert.True(t, retry.OnStatus(502)(err))
}
