// Package config loads runtime settings for the dashboard proxy.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults (Default)
//  2. an optional YAML file
//  3. a .env file in the working directory, if present
//  4. process environment variables
//
// The GitHub token is the exception: it is NOT copied into Config. The
// TokenSource reads the variable named by GitHub.TokenEnv on every upstream
// request, so rotating the credential needs no restart.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"github.com/sakif/gh-profile-dashboard/internal/github"
	"github.com/sakif/gh-profile-dashboard/internal/retry"
)

// EnvConfigFile names the variable holding the default YAML path.
const EnvConfigFile = "CONFIG_FILE"

type Config struct {
	Server ServerConfig `yaml:"server"`
	GitHub GitHubConfig `yaml:"github"`
	Retry  RetryConfig  `yaml:"retry"`
	Cache  CacheConfig  `yaml:"cache"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type GitHubConfig struct {
	// TokenEnv is the variable consulted for the bearer token on each call.
	TokenEnv string `yaml:"token_env"`
	// Token, when set, is used instead of TokenEnv. Meant for local files
	// that are not committed.
	Token                string        `yaml:"token"`
	APIBaseURL           string        `yaml:"api_base_url"`
	ContributionsBaseURL string        `yaml:"contributions_base_url"`
	ReposPerPage         int           `yaml:"repos_per_page"`
	Timeout              time.Duration `yaml:"timeout"`
}

type RetryConfig struct {
	MaxRetries        int           `yaml:"max_retries"`
	InitialDelay      time.Duration `yaml:"initial_delay"`
	Multiplier        float64       `yaml:"multiplier"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	RetryableStatuses []int         `yaml:"retryable_statuses"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
	// MaxEntries bounds each cache with LRU eviction; 0 keeps every entry.
	MaxEntries int `yaml:"max_entries"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	gh := github.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		GitHub: GitHubConfig{
			TokenEnv:             "GITHUB_TOKEN",
			APIBaseURL:           gh.APIBaseURL,
			ContributionsBaseURL: gh.ContributionsBaseURL,
			ReposPerPage:         gh.ReposPerPage,
			Timeout:              gh.Timeout,
		},
		Retry: RetryConfig{
			MaxRetries:        1,
			InitialDelay:      time.Second,
			Multiplier:        2,
			RetryableStatuses: []int{500},
		},
		Cache: CacheConfig{
			TTL: time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), .env and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	// Load .env file if it exists. Variables already set in the process win.
	_ = godotenv.Load()

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getIntEnv("PORT", cfg.Server.Port)
	cfg.Server.ShutdownTimeout = getDurationEnv("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.GitHub.APIBaseURL = getEnv("GITHUB_API_URL", cfg.GitHub.APIBaseURL)
	cfg.GitHub.ContributionsBaseURL = getEnv("CONTRIBUTIONS_API_URL", cfg.GitHub.ContributionsBaseURL)
	cfg.GitHub.Timeout = getDurationEnv("GITHUB_TIMEOUT", cfg.GitHub.Timeout)

	cfg.Retry.MaxRetries = getIntEnv("RETRY_MAX", cfg.Retry.MaxRetries)
	cfg.Retry.InitialDelay = getDurationEnv("RETRY_INITIAL_DELAY", cfg.Retry.InitialDelay)

	cfg.Cache.TTL = getDurationEnv("CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.MaxEntries = getIntEnv("CACHE_MAX_ENTRIES", cfg.Cache.MaxEntries)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fmt.Errorf("config: port %d out of range", c.Server.Port)
	case c.Cache.TTL <= 0:
		return fmt.Errorf("config: cache ttl must be positive, got %s", c.Cache.TTL)
	case c.Cache.MaxEntries < 0:
		return fmt.Errorf("config: cache max_entries must not be negative, got %d", c.Cache.MaxEntries)
	case c.Retry.MaxRetries < 0:
		return fmt.Errorf("config: retry max_retries must not be negative, got %d", c.Retry.MaxRetries)
	case c.Retry.InitialDelay < 0:
		return fmt.Errorf("config: retry initial_delay must not be negative, got %s", c.Retry.InitialDelay)
	case c.GitHub.TokenEnv == "" && c.GitHub.Token == "":
		return fmt.Errorf("config: github token_env must be set")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	return lvl, nil
}

// RetryPolicy converts the retry section into a retry.Policy.
func (c *Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxRetries = c.Retry.MaxRetries
	p.InitialDelay = c.Retry.InitialDelay
	if c.Retry.Multiplier > 0 {
		p.Multiplier = c.Retry.Multiplier
	}
	p.MaxDelay = c.Retry.MaxDelay
	if len(c.Retry.RetryableStatuses) > 0 {
		p.Retryable = retry.OnStatus(c.Retry.RetryableStatuses...)
	}
	return p
}

// GitHubClientConfig overlays the configured endpoints on the client's
// transport defaults.
func (c *Config) GitHubClientConfig() github.Config {
	gh := github.DefaultConfig()
	gh.APIBaseURL = c.GitHub.APIBaseURL
	gh.ContributionsBaseURL = c.GitHub.ContributionsBaseURL
	if c.GitHub.ReposPerPage > 0 {
		gh.ReposPerPage = c.GitHub.ReposPerPage
	}
	if c.GitHub.Timeout > 0 {
		gh.Timeout = c.GitHub.Timeout
	}
	return gh
}

// TokenSource returns the bearer token source for upstream calls.
func (c *Config) TokenSource() oauth2.TokenSource {
	if c.GitHub.Token != "" {
		return github.StaticToken(c.GitHub.Token)
	}
	return github.EnvToken(c.GitHub.TokenEnv)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
