package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sakif/gh-profile-dashboard/internal/model"
)

// contributionDateLayout is the calendar API's date format.
const contributionDateLayout = "2006-01-02"

// Summarize derives the dashboard aggregates from the raw upstream documents.
// now anchors the member-since calculation.
func Summarize(p model.AggregatedProfile, now time.Time) (*model.ProfileSummary, error) {
	var user model.GitHubUser
	if err := json.Unmarshal(p.User, &user); err != nil {
		return nil, fmt.Errorf("decoding user profile: %w", err)
	}

	var repos []model.Repository
	if len(p.Repos) > 0 {
		if err := json.Unmarshal(p.Repos, &repos); err != nil {
			return nil, fmt.Errorf("decoding repositories: %w", err)
		}
	}

	var calendar model.ContributionCalendar
	if len(p.Contributions) > 0 {
		if err := json.Unmarshal(p.Contributions, &calendar); err != nil {
			return nil, fmt.Errorf("decoding contributions: %w", err)
		}
	}

	summary := &model.ProfileSummary{
		Login:     user.Login,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		HTMLURL:   user.HTMLURL,
		Bio:       user.Bio,
		Company:   user.Company,
		Location:  user.Location,
		Blog:      user.Blog,
		Statistics: model.Statistics{
			PublicRepos: user.PublicRepos,
			PublicGists: user.PublicGists,
			Followers:   user.Followers,
			Following:   user.Following,
		},
		RepoCount:     len(repos),
		Contributions: SummarizeContributions(calendar),
	}
	for _, r := range repos {
		summary.TotalStars += r.StargazersCount
		summary.TotalForks += r.ForksCount
	}

	if user.CreatedAt != "" {
		created, err := time.Parse(time.RFC3339, user.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", user.CreatedAt, err)
		}
		summary.MemberSince = MemberSinceAt(created, now)
	}

	return summary, nil
}

// MemberSinceAt splits the time between created and now into years, months
// and days by borrowing on the calendar: a negative day count borrows a
// 30-day month, a negative month count borrows a year. Both instants are
// compared in UTC.
func MemberSinceAt(created, now time.Time) model.MemberSince {
	created, now = created.UTC(), now.UTC()
	if now.Before(created) {
		return model.MemberSince{}
	}

	years := now.Year() - created.Year()
	months := int(now.Month()) - int(created.Month())
	days := now.Day() - created.Day()

	if days < 0 {
		days += 30
		months--
	}
	if months < 0 {
		months += 12
		years--
	}
	return model.MemberSince{Years: years, Months: months, Days: days}
}

// SummarizeContributions totals the calendar and groups daily entries by
// year and month, both in chronological order. Days with an unparseable
// date are left out of the monthly groups.
func SummarizeContributions(cal model.ContributionCalendar) model.ContributionsSummary {
	out := model.ContributionsSummary{
		ByYear: make([]model.YearlyContributions, 0, len(cal.Total)),
		Months: []model.MonthlyContributions{},
	}

	for year, count := range cal.Total {
		out.Total += count
		out.ByYear = append(out.ByYear, model.YearlyContributions{Year: year, Count: count})
	}
	sort.Slice(out.ByYear, func(i, j int) bool { return out.ByYear[i].Year < out.ByYear[j].Year })

	type monthKey struct {
		year  int
		month time.Month
	}
	groups := make(map[monthKey]*model.MonthlyContributions)
	var keys []monthKey

	days := append([]model.Contribution(nil), cal.Contributions...)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	for _, d := range days {
		date, err := time.Parse(contributionDateLayout, d.Date)
		if err != nil {
			continue
		}
		k := monthKey{year: date.Year(), month: date.Month()}
		g, ok := groups[k]
		if !ok {
			g = &model.MonthlyContributions{
				Year:  fmt.Sprintf("%d", k.year),
				Month: k.month.String(),
			}
			groups[k] = g
			keys = append(keys, k)
		}
		g.Count += d.Count
		g.Days = append(g.Days, d)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})
	for _, k := range keys {
		out.Months = append(out.Months, *groups[k])
	}
	return out
}
