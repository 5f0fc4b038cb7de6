package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/sakif/gh-profile-dashboard/internal/apperror"
)

// Languages returns the byte count per language for owner/repo, as reported
// by GET /repos/{owner}/{repo}/languages.
func (c *Client) Languages(ctx context.Context, owner, repo string) (map[string]int64, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/languages", c.cfg.APIBaseURL, url.PathEscape(owner), url.PathEscape(repo))

	raw, err := c.getJSON(ctx, ResourceLanguages, u)
	if err != nil {
		return nil, apperror.Upstream(ResourceLanguages, err)
	}

	langs := make(map[string]int64)
	if err := json.Unmarshal(raw, &langs); err != nil {
		return nil, apperror.Upstream(ResourceLanguages, fmt.Errorf("decoding languages: %w", err))
	}
	return langs, nil
}
