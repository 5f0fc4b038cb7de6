package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/gh-profile-dashboard/internal/apperror"
	"github.com/sakif/gh-profile-dashboard/internal/model"
)

// Caller-facing messages. Handlers copy these into the JSON error envelope.
const (
	MsgUsernameRequired   = "Username is required"
	MsgProfileFetchFailed = "Failed to fetch GitHub data"
)

// Aggregator combines the upstream documents for one username.
// *github.Client implements it; tests pass a fake.
type Aggregator interface {
	Aggregate(ctx context.Context, username string) (model.AggregatedProfile, error)
}

// ProfileService serves aggregated GitHub profiles through a Coordinator.
type ProfileService struct {
	agg    Aggregator
	coord  *Coordinator[model.AggregatedProfile]
	now    func() time.Time
	logger *slog.Logger
}

// NewProfileCoordinator builds the coordinator ProfileService expects.
func NewProfileCoordinator(ttl time.Duration, maxEntries int, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator[model.AggregatedProfile] {
	return NewCoordinator[model.AggregatedProfile](CoordinatorConfig{
		Name:           "profiles",
		TTL:            ttl,
		MaxEntries:     maxEntries,
		FailureMessage: MsgProfileFetchFailed,
	}, logger, opts...)
}

func NewProfileService(agg Aggregator, coord *Coordinator[model.AggregatedProfile], logger *slog.Logger) *ProfileService {
	return &ProfileService{
		agg:    agg,
		coord:  coord,
		now:    time.Now,
		logger: logger,
	}
}

// GetProfile returns the aggregated profile for username.
//
// Surrounding whitespace is trimmed before anything else, so "octocat " and
// "octocat" share one cache entry and one in-flight slot, and a
// whitespace-only username is treated as missing.
//
// Errors:
//   - apperror.ErrValidation  username is blank; nothing else is touched
//   - apperror.ErrInProgress  another request for username is being served
//   - apperror.ErrFetchFailed the aggregation failed; nothing was cached
func (s *ProfileService) GetProfile(ctx context.Context, username string) (model.AggregatedProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.AggregatedProfile{}, apperror.MissingParameter("username", MsgUsernameRequired)
	}

	return s.coord.Do(ctx, username, func(ctx context.Context) (model.AggregatedProfile, error) {
		return s.agg.Aggregate(ctx, username)
	})
}

// GetSummary returns the dashboard view of username's profile. It shares
// the profile cache, so a summary right after /github-data costs no
// upstream calls.
func (s *ProfileService) GetSummary(ctx context.Context, username string) (*model.ProfileSummary, error) {
	p, err := s.GetProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	summary, err := Summarize(p, s.now())
	if err != nil {
		s.logger.Error("failed to summarise profile",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, apperror.FetchFailed(MsgProfileFetchFailed, err)
	}
	return summary, nil
}
