package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/gh-profile-dashboard/internal/apperror"
	"github.com/sakif/gh-profile-dashboard/internal/model"
)

// Aggregate fetches the user profile, the first page of repositories and the
// contribution calendar for username and combines them.
//
// The three calls run concurrently and retry independently. All three must
// succeed: the first terminal failure cancels the others and is returned as
// an apperror.Upstream. There is no partial result.
func (c *Client) Aggregate(ctx context.Context, username string) (model.AggregatedProfile, error) {
	name := url.PathEscape(username)

	var (
		user, repos, contributions json.RawMessage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := c.getJSON(gctx, ResourceUser, c.UserURL(name))
		if err != nil {
			return apperror.Upstream(ResourceUser, err)
		}
		user = raw
		return nil
	})
	g.Go(func() error {
		raw, err := c.getJSON(gctx, ResourceRepos, c.ReposURL(name))
		if err != nil {
			return apperror.Upstream(ResourceRepos, err)
		}
		repos = raw
		return nil
	})
	g.Go(func() error {
		raw, err := c.getJSON(gctx, ResourceContributions, c.ContributionsURL(name))
		if err != nil {
			return apperror.Upstream(ResourceContributions, err)
		}
		contributions = raw
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.AggregatedProfile{}, err
	}

	c.logger.Debug("aggregated github profile",
		slog.String("username", username),
		slog.Int("user_bytes", len(user)),
		slog.Int("repos_bytes", len(repos)),
		slog.Int("contributions_bytes", len(contributions)),
	)

	return model.AggregatedProfile{
		User:          user,
		Repos:         repos,
		Contributions: contributions,
	}, nil
}

// UserURL expects an already escaped username.
func (c *Client) UserURL(name string) string {
	return fmt.Sprintf("%s/users/%s", c.cfg.APIBaseURL, name)
}

func (c *Client) ReposURL(name string) string {
	return fmt.Sprintf("%s/users/%s/repos?per_page=%d", c.cfg.APIBaseURL, name, c.cfg.ReposPerPage)
}

func (c *Client) ContributionsURL(name string) string {
	return fmt.Sprintf("%s/v4/%s", c.cfg.ContributionsBaseURL, name)
}
