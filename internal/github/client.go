// Package github talks to the two upstream services behind the dashboard:
// the GitHub REST API and the public contributions calendar API.
//
// Every request goes through an oauth2.Transport, which adds
// "Authorization: Bearer <token>" before the request leaves the process.
// The token comes from a TokenSource that is consulted per request, so a
// rotated credential is picked up without a restart. An empty token still
// produces the header; there is no unauthenticated fallback.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/gh-profile-dashboard/internal/retry"
)

const (
	DefaultAPIBaseURL           = "https://api.github.com"
	DefaultContributionsBaseURL = "https://github-contributions-api.jogruber.de"
	DefaultReposPerPage         = 100

	// maxBodyBytes bounds how much of an upstream response we buffer.
	maxBodyBytes = 10 << 20
)

// Resource names used in errors, logs and metric labels.
const (
	ResourceUser          = "user profile"
	ResourceRepos         = "repositories"
	ResourceContributions = "contributions"
	ResourceLanguages     = "languages"
)

// Config holds upstream endpoints and HTTP transport settings.
type Config struct {
	APIBaseURL           string
	ContributionsBaseURL string
	ReposPerPage         int
	UserAgent            string

	// Total timeout for one attempt, body included.
	Timeout time.Duration

	DialTimeout         time.Duration
	KeepAlive           time.Duration
	TLSHandshake        time.Duration
	ResponseHeader      time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
}

func DefaultConfig() Config {
	return Config{
		APIBaseURL:           DefaultAPIBaseURL,
		ContributionsBaseURL: DefaultContributionsBaseURL,
		ReposPerPage:         DefaultReposPerPage,
		UserAgent:            "gh-profile-dashboard",
		Timeout:              30 * time.Second,
		DialTimeout:          5 * time.Second,
		KeepAlive:            30 * time.Second,
		TLSHandshake:         5 * time.Second,
		ResponseHeader:       10 * time.Second,
		IdleConnTimeout:      90 * time.Second,
		MaxIdleConns:         100,
		MaxIdleConnsPerHost:  20,
	}
}

// Observer receives upstream call outcomes. The metrics package implements it.
type Observer interface {
	ObserveUpstream(resource string, status int, elapsed time.Duration)
	ObserveRetry(resource string)
}

type noopObserver struct{}

func (noopObserver) ObserveUpstream(string, int, time.Duration) {}
func (noopObserver) ObserveRetry(string)                        {}

// StatusError is returned when an upstream answers with a non-2xx status.
// The response body is deliberately not kept.
type StatusError struct {
	Resource   string
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github: %s returned status %d", e.URL, e.StatusCode)
}

// HTTPStatus lets retry.OnStatus classify the error.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Client performs upstream GETs with the retry policy applied per call.
type Client struct {
	http     *http.Client
	cfg      Config
	policy   retry.Policy
	logger   *slog.Logger
	observer Observer
}

// Option customises a Client.
type Option func(*Client)

// WithObserver reports upstream calls and retries to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewClient builds a Client. tokens supplies the bearer credential.
func NewClient(cfg Config, tokens oauth2.TokenSource, policy retry.Policy, logger *slog.Logger, opts ...Option) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.ContributionsBaseURL == "" {
		cfg.ContributionsBaseURL = DefaultContributionsBaseURL
	}
	if cfg.ReposPerPage <= 0 {
		cfg.ReposPerPage = DefaultReposPerPage
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.ContributionsBaseURL = strings.TrimRight(cfg.ContributionsBaseURL, "/")

	c := &Client{
		http: &http.Client{
			Transport: &oauth2.Transport{
				Source: tokens,
				Base:   newTransport(cfg),
			},
			Timeout: cfg.Timeout,
		},
		cfg:      cfg,
		policy:   policy,
		logger:   logger,
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newTransport(cfg Config) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshake,
		ResponseHeaderTimeout: cfg.ResponseHeader,
	}
}

// getJSON fetches url with the retry policy and returns the raw body.
func (c *Client) getJSON(ctx context.Context, resource, url string) (json.RawMessage, error) {
	p := c.policy
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.observer.ObserveRetry(resource)
		c.logger.Warn("retrying upstream request",
			slog.String("resource", resource),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
	}
	return retry.Do(ctx, p, func(ctx context.Context) (json.RawMessage, error) {
		return c.get(ctx, resource, url)
	})
}

func (c *Client) get(ctx context.Context, resource, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("github: building request for %s: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observer.ObserveUpstream(resource, 0, time.Since(start))
		return nil, fmt.Errorf("github: calling %s: %w", resource, err)
	}
	defer resp.Body.Close()
	c.observer.ObserveUpstream(resource, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{Resource: resource, StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("github: reading %s response: %w", resource, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("github: %s response is not valid JSON", resource)
	}
	return json.RawMessage(body), nil
}
