// Package model defines the data structures used throughout the application.
//
// AggregatedProfile is what /github-data returns: the three upstream JSON
// documents passed through untouched. The typed structs below decode only the
// fields the summary endpoints read; GitHub returns far more than this.
package model

import "encoding/json"

// AggregatedProfile combines the three upstream documents for one username.
// Treat it as immutable once built: the raw slices are shared with the cache.
type AggregatedProfile struct {
	User          json.RawMessage `json:"user"`
	Repos         json.RawMessage `json:"repos"`
	Contributions json.RawMessage `json:"contributions"`
}

// GitHubUser is the subset of GET /users/{username} we summarise.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-a-user
type GitHubUser struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url"`
	HTMLURL     string `json:"html_url"`
	Bio         string `json:"bio"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Blog        string `json:"blog"`
	PublicRepos int    `json:"public_repos"`
	PublicGists int    `json:"public_gists"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	CreatedAt   string `json:"created_at"`
}

// Repository is one element of GET /users/{username}/repos.
type Repository struct {
	Name            string `json:"name"`
	FullName        string `json:"full_name"`
	HTMLURL         string `json:"html_url"`
	Description     string `json:"description"`
	Language        string `json:"language"`
	LanguagesURL    string `json:"languages_url"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	Size            int    `json:"size"`
	Fork            bool   `json:"fork"`
	CreatedAt       string `json:"created_at"`
}

// ContributionCalendar is the contributions API v4 document:
// yearly totals plus one entry per day.
type ContributionCalendar struct {
	Total         map[string]int `json:"total"`
	Contributions []Contribution `json:"contributions"`
}

// Contribution is a single day in the calendar. Date is YYYY-MM-DD.
type Contribution struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}
