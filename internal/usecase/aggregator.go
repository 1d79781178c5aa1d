// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/jcaw/jekyll-github-scraper/internal/domain"
	"github.com/jcaw/jekyll-github-scraper/internal/gateway"
	"github.com/jcaw/jekyll-github-scraper/internal/sanitize"
)

// Aggregator is the use case for aggregating GitHub contributions.
// It walks the years from newest to oldest and folds each year's totals into
// one record per repository.
type Aggregator struct {
	fetcher  gateway.Fetcher
	username string
	logger   *log.Logger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, username string, logger *log.Logger) *Aggregator {
	return &Aggregator{
		fetcher:  fetcher,
		username: username,
		logger:   logger,
	}
}

// repoSet is an insertion-ordered set of records keyed by case-folded full name.
type repoSet struct {
	records map[string]*domain.RepositoryRecord
	order   []string
}

func newRepoSet() *repoSet {
	return &repoSet{records: make(map[string]*domain.RepositoryRecord)}
}

func (s *repoSet) get(key string) (*domain.RepositoryRecord, bool) {
	r, ok := s.records[key]
	return r, ok
}

func (s *repoSet) add(key string, r *domain.RepositoryRecord) {
	s.records[key] = r
	s.order = append(s.order, key)
}

// removeIf drops every record matching pred, keeping the order of the rest.
func (s *repoSet) removeIf(pred func(*domain.RepositoryRecord) bool) {
	kept := s.order[:0]
	for _, key := range s.order {
		if pred(s.records[key]) {
			delete(s.records, key)
			continue
		}
		kept = append(kept, key)
	}
	s.order = kept
}

func (s *repoSet) values() []*domain.RepositoryRecord {
	out := make([]*domain.RepositoryRecord, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.records[key])
	}
	return out
}

// Aggregate fetches currentYear and every earlier year down to startYear. When
// startYear is nil the lower bound is the year the account was created, read
// from the first response. The first error stops the loop and is returned
// without a partial result.
func (a *Aggregator) Aggregate(ctx context.Context, currentYear int, startYear *int) (*domain.Result, error) {
	a.logger.Println("Querying GitHub for contributions")

	if quota, err := a.fetcher.FetchQuota(ctx); err != nil {
		a.logger.Printf("  Could not read GraphQL rate limit: %v\n", err)
	} else {
		a.logger.Printf("  GraphQL rate limit: %d/%d remaining, resets at %s\n", quota.Remaining, quota.Limit, quota.Reset.Format("15:04:05"))
	}

	earliest := 0
	derive := startYear == nil
	if !derive {
		earliest = *startYear
	}

	sources := newRepoSet()
	contributions := newRepoSet()
	result := &domain.Result{RecentPullRequests: []domain.RecentPullRequest{}}

	for year := currentYear; derive || year >= earliest; year-- {
		a.logger.Printf("  Fetching year: %d\n", year)
		yr, err := a.fetcher.FetchYear(ctx, a.username, year)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch contributions for %d: %w", year, err)
		}
		result.YearsFetched++

		if derive {
			derive = false
			if yr.CreatedAt.IsZero() {
				earliest = year
				a.logger.Printf("  Join date unknown - querying only %d\n", year)
			} else {
				earliest = yr.CreatedAt.Year()
				a.logger.Printf("  User joined in %d - querying back to the start of %d\n", earliest, earliest)
			}
		}

		a.merge(yr, sources, contributions)

		// A contribution needs at least one accepted commit. Repositories with
		// only open or rejected pull requests are dropped until they get one.
		contributions.removeIf(func(r *domain.RepositoryRecord) bool { return r.NCommits == 0 })

		if year == currentYear {
			result.RecentPullRequests = append(result.RecentPullRequests, yr.RecentPullRequests...)
			result.RecentFetched = true
		}
	}

	result.Sources = sources.values()
	result.Contributions = contributions.values()
	a.logger.Printf("Aggregation complete: %d sources, %d contributions over %d years\n", len(result.Sources), len(result.Contributions), result.YearsFetched)
	return result, nil
}

func (a *Aggregator) merge(yr *domain.YearResult, sources, contributions *repoSet) {
	for _, c := range yr.Tagged() {
		key := strings.ToLower(c.Repository.FullName())
		if r, ok := sources.get(key); ok {
			r.Add(c.Facet, c.TotalCount)
			continue
		}
		if r, ok := contributions.get(key); ok {
			r.Add(c.Facet, c.TotalCount)
			continue
		}

		r := a.newRecord(c.Repository)
		r.Add(c.Facet, c.TotalCount)
		if r.OwnedBy(a.username) {
			sources.add(key, r)
		} else {
			contributions.add(key, r)
		}
	}
}

func (a *Aggregator) newRecord(repo domain.Repository) *domain.RepositoryRecord {
	languages := make([]domain.Language, len(repo.Languages))
	copy(languages, repo.Languages)
	user := url.QueryEscape(a.username)
	return &domain.RepositoryRecord{
		FullName:            repo.FullName(),
		Name:                repo.Name,
		Owner:               repo.Owner,
		URL:                 repo.URL,
		Description:         repo.Description,
		DescriptionNoEmojis: sanitize.StripPictographic(repo.Description),
		Languages:           languages,
		// All pull requests by the user, not only merged ones: some projects
		// close and cherry-pick instead of merging.
		MyPullsURL:   fmt.Sprintf("%s/pulls?q=author%%3A%s", repo.URL, user),
		MyCommitsURL: fmt.Sprintf("%s/commits?author=%s", repo.URL, user),
	}
}
