package service

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sakif/gh-profile-dashboard/internal/apperror"
	"github.com/sakif/gh-profile-dashboard/internal/model"
)

const (
	MsgRepoRequired         = "Owner and repo are required"
	MsgLanguagesFetchFailed = "Failed to fetch repository languages"

	defaultLanguageColor = "#2b2b2b"
)

// languageColors matches the swatches the dashboard draws.
var languageColors = map[string]string{
	"JavaScript": "#f1e05a",
	"TypeScript": "#2b7489",
	"Python":     "#3572A5",
	"Java":       "#b07219",
	"Ruby":       "#701516",
	"Go":         "#00ADD8",
	"Rust":       "#dea584",
	"C":          "#555555",
	"C++":        "#f34b7d",
	"C#":         "#178600",
	"PHP":        "#4F5D95",
	"Swift":      "#ffac45",
	"Kotlin":     "#F18E33",
	"Dart":       "#00B4AB",
}

// LanguageColor returns the swatch colour for a language name.
func LanguageColor(name string) string {
	if c, ok := languageColors[name]; ok {
		return c
	}
	return defaultLanguageColor
}

// LanguageFetcher returns bytes per language for one repository.
type LanguageFetcher interface {
	Languages(ctx context.Context, owner, repo string) (map[string]int64, error)
}

// LanguageService serves per-repository language breakdowns through its own
// Coordinator, with the same TTL and in-flight policy as profiles.
type LanguageService struct {
	fetcher LanguageFetcher
	coord   *Coordinator[model.LanguageBreakdown]
	logger  *slog.Logger
}

func NewLanguageCoordinator(ttl time.Duration, maxEntries int, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator[model.LanguageBreakdown] {
	return NewCoordinator[model.LanguageBreakdown](CoordinatorConfig{
		Name:           "languages",
		TTL:            ttl,
		MaxEntries:     maxEntries,
		FailureMessage: MsgLanguagesFetchFailed,
	}, logger, opts...)
}

func NewLanguageService(fetcher LanguageFetcher, coord *Coordinator[model.LanguageBreakdown], logger *slog.Logger) *LanguageService {
	return &LanguageService{fetcher: fetcher, coord: coord, logger: logger}
}

// GetLanguages returns the language split of owner/repo.
func (s *LanguageService) GetLanguages(ctx context.Context, owner, repo string) (model.LanguageBreakdown, error) {
	owner, repo = strings.TrimSpace(owner), strings.TrimSpace(repo)
	if owner == "" {
		return model.LanguageBreakdown{}, apperror.MissingParameter("owner", MsgRepoRequired)
	}
	if repo == "" {
		return model.LanguageBreakdown{}, apperror.MissingParameter("repo", MsgRepoRequired)
	}

	return s.coord.Do(ctx, owner+"/"+repo, func(ctx context.Context) (model.LanguageBreakdown, error) {
		langs, err := s.fetcher.Languages(ctx, owner, repo)
		if err != nil {
			return model.LanguageBreakdown{}, err
		}
		return BuildBreakdown(owner, repo, langs), nil
	})
}

// BuildBreakdown converts raw byte counts into percentages rounded to one
// decimal place, largest language first.
func BuildBreakdown(owner, repo string, langs map[string]int64) model.LanguageBreakdown {
	b := model.LanguageBreakdown{
		Owner:     owner,
		Repo:      repo,
		Languages: make([]model.LanguageShare, 0, len(langs)),
	}
	for _, n := range langs {
		b.TotalBytes += n
	}
	for name, n := range langs {
		share := model.LanguageShare{Name: name, Bytes: n, Color: LanguageColor(name)}
		if b.TotalBytes > 0 {
			share.Percentage = math.Round(float64(n)/float64(b.TotalBytes)*1000) / 10
		}
		b.Languages = append(b.Languages, share)
	}
	sort.Slice(b.Languages, func(i, j int) bool {
		if b.Languages[i].Bytes != b.Languages[j].Bytes {
			return b.Languages[i].Bytes > b.Languages[j].Bytes
		}
		return b.Languages[i].Name < b.Languages[j].Name
	})
	return b
}
