// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Facet identifies which part of the contributions collection a total came from.
type Facet string

const (
	FacetCommit Facet = "commit"
	FacetPR     Facet = "pr"
)

// Owner is the account that owns a repository.
type Owner struct {
	Login string `json:"login"`
}

// Language is one entry of a repository's language breakdown.
type Language struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Repository is the repository metadata attached to a contribution total.
type Repository struct {
	Owner       Owner
	Name        string
	URL         string
	Description string
	Languages   []Language
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner.Login, r.Name)
}

// RepositoryContribution is the contribution total one facet reports for one
// repository within one calendar year.
type RepositoryContribution struct {
	Repository Repository
	TotalCount int
	Facet      Facet
}

// YearResult is everything a single yearly query returns.
type YearResult struct {
	Year int
	// CreatedAt is the account's join date. Zero when GitHub did not report it.
	CreatedAt          time.Time
	RecentPullRequests []RecentPullRequest
	Commits            []RepositoryContribution
	PullRequests       []RepositoryContribution
}

// Tagged returns the commit facet followed by the pull request facet, with
// every entry tagged by the facet it came from.
func (y *YearResult) Tagged() []RepositoryContribution {
	tagged := make([]RepositoryContribution, 0, len(y.Commits)+len(y.PullRequests))
	for _, c := range y.Commits {
		c.Facet = FacetCommit
		tagged = append(tagged, c)
	}
	for _, c := range y.PullRequests {
		c.Facet = FacetPR
		tagged = append(tagged, c)
	}
	return tagged
}

// RepositoryRecord is the aggregated, per-repository entry written to the
// sources and contributions data files.
type RepositoryRecord struct {
	FullName            string     `json:"full_name"`
	Name                string     `json:"name"`
	Owner               Owner      `json:"owner"`
	URL                 string     `json:"url"`
	Description         string     `json:"description"`
	DescriptionNoEmojis string     `json:"description_no_emojis"`
	Languages           []Language `json:"languages"`
	NCommits            int        `json:"n_commits"`
	NPRs                int        `json:"n_prs"`
	MyPullsURL          string     `json:"my_pulls_url"`
	MyCommitsURL        string     `json:"my_commits_url"`
}

// Add increments the accumulator matching the facet.
func (r *RepositoryRecord) Add(facet Facet, count int) {
	switch facet {
	case FacetCommit:
		r.NCommits += count
	case FacetPR:
		r.NPRs += count
	}
}

// OwnedBy reports whether the repository belongs to login, ignoring case.
func (r *RepositoryRecord) OwnedBy(login string) bool {
	return strings.EqualFold(r.Owner.Login, login)
}

// PullRequestRepository identifies the repository a pull request was merged into.
type PullRequestRepository struct {
	Name          string `json:"name"`
	Owner         Owner  `json:"owner"`
	NameWithOwner string `json:"nameWithOwner"`
}

// RecentPullRequest is one of the user's most recently updated merged pull requests.
type RecentPullRequest struct {
	Title      string                `json:"title"`
	Repository PullRequestRepository `json:"repository"`
	Additions  int                   `json:"additions"`
	Deletions  int                   `json:"deletions"`
	URL        string                `json:"url"`
}

// Result is the output of one aggregation run.
type Result struct {
	Sources            []*RepositoryRecord
	Contributions      []*RepositoryRecord
	RecentPullRequests []RecentPullRequest
	// YearsFetched counts the yearly queries that completed.
	YearsFetched int
	// RecentFetched is set once the current year's query has run.
	RecentFetched bool
}

// Summary condenses a Result for logging and display.
type Summary struct {
	Sources       int     `json:"sources"`
	Contributions int     `json:"contributions"`
	TotalCommits  int     `json:"total_commits"`
	TotalPRs      int     `json:"total_prs"`
	MedianCommits float64 `json:"median_commits"`
}
