package model

// ProfileSummary is the dashboard view of an AggregatedProfile.
type ProfileSummary struct {
	Login         string               `json:"login"`
	Name          string               `json:"name"`
	AvatarURL     string               `json:"avatarUrl"`
	HTMLURL       string               `json:"htmlUrl"`
	Bio           string               `json:"bio"`
	Company       string               `json:"company"`
	Location      string               `json:"location"`
	Blog          string               `json:"blog"`
	Statistics    Statistics           `json:"statistics"`
	TotalStars    int                  `json:"totalStars"`
	TotalForks    int                  `json:"totalForks"`
	RepoCount     int                  `json:"repoCount"`
	MemberSince   MemberSince          `json:"memberSince"`
	Contributions ContributionsSummary `json:"contributions"`
}

type Statistics struct {
	PublicRepos int `json:"publicRepos"`
	PublicGists int `json:"publicGists"`
	Followers   int `json:"followers"`
	Following   int `json:"following"`
}

// MemberSince is the account age broken into calendar parts.
type MemberSince struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

type ContributionsSummary struct {
	Total  int                    `json:"total"`
	ByYear []YearlyContributions  `json:"byYear"`
	Months []MonthlyContributions `json:"months"`
}

type YearlyContributions struct {
	Year  string `json:"year"`
	Count int    `json:"count"`
}

type MonthlyContributions struct {
	Year  string         `json:"year"`
	Month string         `json:"month"`
	Count int            `json:"count"`
	Days  []Contribution `json:"days"`
}

// LanguageBreakdown is the per-language byte split of one repository.
type LanguageBreakdown struct {
	Owner      string          `json:"owner"`
	Repo       string          `json:"repo"`
	TotalBytes int64           `json:"totalBytes"`
	Languages  []LanguageShare `json:"languages"`
}

type LanguageShare struct {
	Name       string  `json:"name"`
	Bytes      int64   `json:"bytes"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}
