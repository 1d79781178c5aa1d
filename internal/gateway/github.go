// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/jcaw/jekyll-github-scraper/internal/domain"
	apperrors "github.com/jcaw/jekyll-github-scraper/internal/errors"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
	maxRetryDelay        = 30 * time.Second
)

// Quota is the GraphQL rate limit state reported by the REST API.
type Quota struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// FetchYear returns the user's contributions for [year-01-01, (year+1)-01-01).
	FetchYear(ctx context.Context, login string, year int) (*domain.YearResult, error)
	FetchQuota(ctx context.Context) (*Quota, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
	retryAttempts uint
	retryDelay    time.Duration
}

type repositoryNode struct {
	Owner struct {
		Login string
	}
	Name        string
	URL         string
	Description string
	Languages   struct {
		Nodes []struct {
			Name  string
			Color string
		}
	} `graphql:"languages(first: 100)"`
}

type repositoryContributionNode struct {
	Repository    repositoryNode
	Contributions struct {
		TotalCount int
	}
}

type pullRequestNode struct {
	Title      string
	Repository struct {
		Name  string
		Owner struct {
			Login string
		}
		NameWithOwner string
	}
	Additions int
	Deletions int
	URL       string
}

// contributionsQuery fetches one year of contributions. The merged pull
// requests do not depend on the window; they ride along with every request
// because bundling them costs no extra rate limit points.
type contributionsQuery struct {
	User struct {
		Login        string
		CreatedAt    githubv4.DateTime
		PullRequests struct {
			Nodes []pullRequestNode
		} `graphql:"pullRequests(first: 10, states: [MERGED], orderBy: {field: UPDATED_AT, direction: DESC})"`
		ContributionsCollection struct {
			CommitContributionsByRepository      []repositoryContributionNode `graphql:"commitContributionsByRepository(maxRepositories: 100)"`
			PullRequestContributionsByRepository []repositoryContributionNode `graphql:"pullRequestContributionsByRepository(maxRepositories: 100)"`
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
	}, nil
}

// YearWindow returns the half-open interval covering the calendar year in UTC.
func YearWindow(year int) (from, to time.Time) {
	from = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

func (g *GitHubGateway) FetchYear(ctx context.Context, login string, year int) (*domain.YearResult, error) {
	from, to := YearWindow(year)
	variables := map[string]interface{}{
		"login": githubv4.String(login),
		"from":  githubv4.DateTime{Time: from},
		"to":    githubv4.DateTime{Time: to},
	}

	var q contributionsQuery
	err := retry.Do(
		func() error {
			q = contributionsQuery{}
			return g.graphqlClient.Query(ctx, &q, variables)
		},
		retry.Context(ctx),
		retry.Attempts(g.retryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(g.retryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.OnRetry(func(n uint, err error) {
			g.logger.Printf("  [RETRY] year %d: attempt %d/%d failed: %v\n", year, n+1, g.retryAttempts, err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, apperrors.NewUpstreamError(fmt.Sprintf("failed to execute GraphQL query for year %d", year), err)
	}
	if q.User.Login == "" {
		return nil, apperrors.NewUpstreamError(fmt.Sprintf("user %q not found", login), nil)
	}

	result := &domain.YearResult{
		Year:               year,
		CreatedAt:          q.User.CreatedAt.Time,
		RecentPullRequests: make([]domain.RecentPullRequest, 0, len(q.User.PullRequests.Nodes)),
		Commits:            toContributions(q.User.ContributionsCollection.CommitContributionsByRepository),
		PullRequests:       toContributions(q.User.ContributionsCollection.PullRequestContributionsByRepository),
	}
	for _, pr := range q.User.PullRequests.Nodes {
		result.RecentPullRequests = append(result.RecentPullRequests, domain.RecentPullRequest{
			Title: pr.Title,
			Repository: domain.PullRequestRepository{
				Name:          pr.Repository.Name,
				Owner:         domain.Owner{Login: pr.Repository.Owner.Login},
				NameWithOwner: pr.Repository.NameWithOwner,
			},
			Additions: pr.Additions,
			Deletions: pr.Deletions,
			URL:       pr.URL,
		})
	}
	return result, nil
}

func toContributions(nodes []repositoryContributionNode) []domain.RepositoryContribution {
	out := make([]domain.RepositoryContribution, 0, len(nodes))
	for _, n := range nodes {
		languages := make([]domain.Language, 0, len(n.Repository.Languages.Nodes))
		for _, l := range n.Repository.Languages.Nodes {
			languages = append(languages, domain.Language{Name: l.Name, Color: l.Color})
		}
		out = append(out, domain.RepositoryContribution{
			Repository: domain.Repository{
				Owner:       domain.Owner{Login: n.Repository.Owner.Login},
				Name:        n.Repository.Name,
				URL:         n.Repository.URL,
				Description: n.Repository.Description,
				Languages:   languages,
			},
			TotalCount: n.Contributions.TotalCount,
		})
	}
	return out
}

// FetchQuota reads the remaining GraphQL budget from the REST rate limit endpoint.
func (g *GitHubGateway) FetchQuota(ctx context.Context) (*Quota, error) {
	limits, _, err := g.restClient.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rate limits with REST API: %w", err)
	}
	rate := limits.GetGraphQL()
	if rate == nil {
		return nil, errors.New("rate limit response has no graphql resource")
	}
	return &Quota{
		Limit:     rate.Limit,
		Remaining: rate.Remaining,
		Reset:     rate.Reset.Time,
	}, nil
}
