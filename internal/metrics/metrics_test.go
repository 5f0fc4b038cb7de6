package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scrape returns the exposition text m currently serves.
func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCacheRecorder(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := m.ForCache("profiles")

	r.Hit()
	r.Hit()
	r.Miss()
	r.Rejected()
	r.Evicted()
	r.Fetched(nil)
	r.Fetched(errors.New("boom"))

	body := scrape(t, m)
	assert.Contains(t, body, `dashboard_cache_lookups_total{cache="profiles",result="hit"} 2`)
	assert.Contains(t, body, `dashboard_cache_lookups_total{cache="profiles",result="miss"} 1`)
	assert.Contains(t, body, `dashboard_inflight_rejections_total{cache="profiles"} 1`)
	assert.Contains(t, body, `dashboard_cache_evictions_total{cache="profiles"} 1`)
	assert.Contains(t, body, `dashboard_fetches_total{cache="profiles",outcome="success"} 1`)
	assert.Contains(t, body, `dashboard_fetches_total{cache="profiles",outcome="failure"} 1`)
}

func TestUpstreamObserver(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveUpstream("repositories", 500, 10*time.Millisecond)
	m.ObserveUpstream("repositories", 200, 10*time.Millisecond)
	m.ObserveRetry("repositories")

	body := scrape(t, m)
	assert.Contains(t, body, `dashboard_upstream_requests_total{resource="repositories",status="500"} 1`)
	assert.Contains(t, body, `dashboard_upstream_retries_total{resource="repositories"} 1`)
	assert.Contains(t, body, `dashboard_upstream_request_duration_seconds_count{resource="repositories"} 2`)
}

func TestHandler_ServesRuntimeCollectors(t *testing.T) {
	m := New(NewRegistry())
	m.ObserveHTTP(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `http_requests_total{endpoint="/healthz",method="GET",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
