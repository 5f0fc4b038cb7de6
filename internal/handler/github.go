package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/gh-profile-dashboard/internal/apperror"
	"github.com/sakif/gh-profile-dashboard/internal/model"
)

// ProfileService is what the GitHub endpoints need from the service layer.
// Declaring the interface here, at the consumer, keeps the handler testable
// with a small fake instead of a real Coordinator.
type ProfileService interface {
	GetProfile(ctx context.Context, username string) (model.AggregatedProfile, error)
	GetSummary(ctx context.Context, username string) (*model.ProfileSummary, error)
}

// LanguageService serves per-repository language breakdowns.
type LanguageService interface {
	GetLanguages(ctx context.Context, owner, repo string) (model.LanguageBreakdown, error)
}

// GitHubHandler serves the dashboard's data endpoints.
type GitHubHandler struct {
	profiles  ProfileService
	languages LanguageService
	logger    *slog.Logger
}

func NewGitHubHandler(profiles ProfileService, languages LanguageService, logger *slog.Logger) *GitHubHandler {
	return &GitHubHandler{profiles: profiles, languages: languages, logger: logger}
}

// HandleGitHubData returns the raw aggregated profile.
//
// HTTP: GET /github-data?username=octocat
//
// RESPONSE FORMAT:
//
//	{"user": {...}, "repos": [...], "contributions": {...}}
//
// The three members are the upstream documents byte-for-byte.
func (h *GitHubHandler) HandleGitHubData(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	p, err := h.profiles.GetProfile(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleSummary returns the derived dashboard view of a profile.
//
// HTTP: GET /github-summary?username=octocat
func (h *GitHubHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	s, err := h.profiles.GetSummary(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleLanguages returns the language split of one repository.
//
// HTTP: GET /repo-languages?owner=octocat&repo=Hello-World
func (h *GitHubHandler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	b, err := h.languages.GetLanguages(r.Context(), q.Get("owner"), q.Get("repo"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleHealth is a liveness check. It never touches the upstreams.
//
// HTTP: GET /healthz
func (h *GitHubHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail logs err with its full cause chain and writes the envelope.
// Rejections and bad input are expected traffic and stay at Info.
func (h *GitHubHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	level := slog.LevelError
	if errors.Is(err, apperror.ErrValidation) || errors.Is(err, apperror.ErrInProgress) {
		level = slog.LevelInfo
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("path", r.URL.Path),
		slog.String("query", r.URL.RawQuery),
		slog.Int("status", errorStatus(err)),
		slog.String("error", err.Error()),
	)
	writeError(w, err)
}
