package usecase

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jcaw/jekyll-github-scraper/internal/domain"
	apperrors "github.com/jcaw/jekyll-github-scraper/internal/errors"
	"github.com/jcaw/jekyll-github-scraper/internal/gateway"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchYear(ctx context.Context, login string, year int) (*domain.YearResult, error) {
	args := m.Called(ctx, login, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.YearResult), args.Error(1)
}

func (m *mockFetcher) FetchQuota(ctx context.Context) (*gateway.Quota, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Quota), args.Error(1)
}

func newMockFetcher() *mockFetcher {
	f := new(mockFetcher)
	f.On("FetchQuota", mock.Anything).Return(&gateway.Quota{Limit: 5000, Remaining: 5000}, nil).Maybe()
	return f
}

// contrib builds a facet entry for owner/name with the given total.
func contrib(fullName string, total int) domain.RepositoryContribution {
	owner, name, _ := strings.Cut(fullName, "/")
	return domain.RepositoryContribution{
		Repository: domain.Repository{
			Owner: domain.Owner{Login: owner},
			Name:  name,
			URL:   "https://github.com/" + fullName,
		},
		TotalCount: total,
	}
}

func year(y int, commits, prs []domain.RepositoryContribution) *domain.YearResult {
	return &domain.YearResult{Year: y, Commits: commits, PullRequests: prs}
}

func intPtr(v int) *int { return &v }

// counts reduces records to full_name -> [n_commits, n_prs].
func counts(records []*domain.RepositoryRecord) map[string][2]int {
	out := make(map[string][2]int, len(records))
	for _, r := range records {
		out[r.FullName] = [2]int{r.NCommits, r.NPRs}
	}
	return out
}

func TestAggregator_Aggregate(t *testing.T) {
	testCases := []struct {
		name                  string
		years                 map[int]*domain.YearResult
		currentYear           int
		startYear             *int
		expectedSources       map[string][2]int
		expectedContributions map[string][2]int
	}{
		{
			name:        "end to end - own repo kept, PR-only contribution pruned",
			currentYear: 2024,
			startYear:   intPtr(2024),
			years: map[int]*domain.YearResult{
				2024: year(2024,
					[]domain.RepositoryContribution{contrib("alice/proj", 10)},
					[]domain.RepositoryContribution{contrib("bob/tool", 2)}),
			},
			expectedSources:       map[string][2]int{"alice/proj": {10, 0}},
			expectedContributions: map[string][2]int{},
		},
		{
			name:        "merge - same repo in both facets of one year is one record",
			currentYear: 2024,
			startYear:   intPtr(2024),
			years: map[int]*domain.YearResult{
				2024: year(2024,
					[]domain.RepositoryContribution{contrib("bob/tool", 5)},
					[]domain.RepositoryContribution{contrib("bob/tool", 3)}),
			},
			expectedSources:       map[string][2]int{},
			expectedContributions: map[string][2]int{"bob/tool": {5, 3}},
		},
		{
			name:        "cross-year accumulation",
			currentYear: 2024,
			startYear:   intPtr(2023),
			years: map[int]*domain.YearResult{
				2024: year(2024, []domain.RepositoryContribution{contrib("bob/tool", 2)}, nil),
				2023: year(2023, []domain.RepositoryContribution{contrib("bob/tool", 3)}, []domain.RepositoryContribution{contrib("bob/tool", 1)}),
			},
			expectedSources:       map[string][2]int{},
			expectedContributions: map[string][2]int{"bob/tool": {5, 1}},
		},
		{
			name:        "pruning - PR-only contribution across all years is dropped",
			currentYear: 2024,
			startYear:   intPtr(2023),
			years: map[int]*domain.YearResult{
				2024: year(2024, nil, []domain.RepositoryContribution{contrib("bob/tool", 2)}),
				2023: year(2023, nil, []domain.RepositoryContribution{contrib("bob/tool", 2)}),
			},
			expectedSources:       map[string][2]int{},
			expectedContributions: map[string][2]int{},
		},
		{
			name:        "pruned repo reappears when an older year adds commits",
			currentYear: 2024,
			startYear:   intPtr(2023),
			years: map[int]*domain.YearResult{
				2024: year(2024, nil, []domain.RepositoryContribution{contrib("bob/tool", 4)}),
				2023: year(2023, []domain.RepositoryContribution{contrib("bob/tool", 1)}, nil),
			},
			expectedSources:       map[string][2]int{},
			expectedContributions: map[string][2]int{"bob/tool": {1, 0}},
		},
		{
			name:        "own repos with zero commits are never pruned",
			currentYear: 2024,
			startYear:   intPtr(2024),
			years: map[int]*domain.YearResult{
				2024: year(2024, nil, []domain.RepositoryContribution{contrib("alice/docs", 4)}),
			},
			expectedSources:       map[string][2]int{"alice/docs": {0, 4}},
			expectedContributions: map[string][2]int{},
		},
		{
			name:        "classification ignores login case across years",
			currentYear: 2024,
			startYear:   intPtr(2023),
			years: map[int]*domain.YearResult{
				2024: year(2024, []domain.RepositoryContribution{contrib("Alice/proj", 2)}, nil),
				2023: year(2023, []domain.RepositoryContribution{contrib("alice/proj", 3)}, nil),
			},
			expectedSources:       map[string][2]int{"Alice/proj": {5, 0}},
			expectedContributions: map[string][2]int{},
		},
		{
			name:                  "start year after current year runs no queries",
			currentYear:           2024,
			startYear:             intPtr(2030),
			years:                 map[int]*domain.YearResult{},
			expectedSources:       map[string][2]int{},
			expectedContributions: map[string][2]int{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := newMockFetcher()
			for y, r := range tc.years {
				fetcher.On("FetchYear", mock.Anything, "alice", y).Return(r, nil).Once()
			}
			aggregator := NewAggregator(fetcher, "alice", log.New(io.Discard, "", 0))

			result, err := aggregator.Aggregate(context.Background(), tc.currentYear, tc.startYear)

			require.NoError(t, err)
			assert.Equal(t, tc.expectedSources, counts(result.Sources))
			assert.Equal(t, tc.expectedContributions, counts(result.Contributions))
			assert.Equal(t, len(tc.years), result.YearsFetched)
			assert.NotNil(t, result.Sources)
			assert.NotNil(t, result.Contributions)
			fetcher.AssertExpectations(t)
		})
	}
}

func TestAggregator_DerivesStartYearFromJoinDate(t *testing.T) {
	fetcher := newMockFetcher()
	current := year(2024, []domain.RepositoryContribution{contrib("alice/proj", 1)}, nil)
	current.CreatedAt = time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)
	current.RecentPullRequests = []domain.RecentPullRequest{{Title: "Fix parser"}}
	older := year(2022, []domain.RepositoryContribution{contrib("alice/proj", 2)}, nil)
	older.RecentPullRequests = []domain.RecentPullRequest{{Title: "ignored"}}

	fetcher.On("FetchYear", mock.Anything, "alice", 2024).Return(current, nil).Once()
	fetcher.On("FetchYear", mock.Anything, "alice", 2023).Return(year(2023, nil, nil), nil).Once()
	fetcher.On("FetchYear", mock.Anything, "alice", 2022).Return(older, nil).Once()
	aggregator := NewAggregator(fetcher, "alice", log.New(io.Discard, "", 0))

	result, err := aggregator.Aggregate(context.Background(), 2024, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, result.YearsFetched)
	assert.Equal(t, map[string][2]int{"alice/proj": {3, 0}}, counts(result.Sources))
	assert.True(t, result.RecentFetched)
	assert.Equal(t, []domain.RecentPullRequest{{Title: "Fix parser"}}, result.RecentPullRequests)
	fetcher.AssertExpectations(t)
	fetcher.AssertNotCalled(t, "FetchYear", mock.Anything, "alice", 2021)
}

func TestAggregator_UnknownJoinDateStopsAfterCurrentYear(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.On("FetchYear", mock.Anything, "alice", 2024).Return(year(2024, nil, nil), nil).Once()
	aggregator := NewAggregator(fetcher, "alice", log.New(io.Discard, "", 0))

	result, err := aggregator.Aggregate(context.Background(), 2024, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.YearsFetched)
	fetcher.AssertExpectations(t)
}

func TestAggregator_UpstreamErrorStopsLoop(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.On("FetchYear", mock.Anything, "alice", 2024).Return(year(2024, []domain.RepositoryContribution{contrib("alice/proj", 1)}, nil), nil).Once()
	fetcher.On("FetchYear", mock.Anything, "alice", 2023).Return(nil, apperrors.NewUpstreamError("boom", nil)).Once()
	aggregator := NewAggregator(fetcher, "alice", log.New(io.Discard, "", 0))

	result, err := aggregator.Aggregate(context.Background(), 2024, intPtr(2020))

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	fetcher.AssertExpectations(t)
	fetcher.AssertNotCalled(t, "FetchYear", mock.Anything, "alice", 2022)
}

func TestAggregator_QuotaFailureIsNotFatal(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchQuota", mock.Anything).Return(nil, assert.AnError).Once()
	fetcher.On("FetchYear", mock.Anything, "alice", 2024).Return(year(2024, nil, nil), nil).Once()
	aggregator := NewAggregator(fetcher, "alice", log.New(io.Discard, "", 0))

	_, err := aggregator.Aggregate(context.Background(), 2024, intPtr(2024))

	require.NoError(t, err)
	fetcher.AssertExpectations(t)
}

func TestAggregator_NewRecordFields(t *testing.T) {
	fetcher := newMockFetcher()
	entry := contrib("bob/tool", 7)
	entry.Repository.Description = "A tool 🎉 for things"
	entry.Repository.Languages = []domain.Language{{Name: "Go", Color: "#00ADD8"}}
	fetcher.On("FetchYear", mock.Anything, "alice", 2024).Return(year(2024, []domain.RepositoryContribution{entry}, nil), nil).Once()
	aggregator := NewAggregator(fetcher, "alice", log.New(io.Discard, "", 0))

	result, err := aggregator.Aggregate(context.Background(), 2024, intPtr(2024))

	require.NoError(t, err)
	require.Len(t, result.Contributions, 1)
	assert.Equal(t, &domain.RepositoryRecord{
		FullName:            "bob/tool",
		Name:                "tool",
		Owner:               domain.Owner{Login: "bob"},
		URL:                 "https://github.com/bob/tool",
		Description:         "A tool 🎉 for things",
		DescriptionNoEmojis: "A tool  for things",
		Languages:           []domain.Language{{Name: "Go", Color: "#00ADD8"}},
		NCommits:            7,
		NPRs:                0,
		MyPullsURL:          "https://github.com/bob/tool/pulls?q=author%3Aalice",
		MyCommitsURL:        "https://github.com/bob/tool/commits?author=alice",
	}, result.Contributions[0])
}

func TestAggregator_FirstSeenOrder(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.On("FetchYear", mock.Anything, "alice", 2024).Return(year(2024,
		[]domain.RepositoryContribution{contrib("carol/b", 1), contrib("bob/a", 1)},
		[]domain.RepositoryContribution{contrib("dave/c", 1)}), nil).Once()
	fetcher.On("FetchYear", mock.Anything, "alice", 2023).Return(year(2023,
		[]domain.RepositoryContribution{contrib("dave/c", 1), contrib("erin/d", 1)}, nil), nil).Once()
	aggregator := NewAggregator(fetcher, "alice", log.New(io.Discard, "", 0))

	result, err := aggregator.Aggregate(context.Background(), 2024, intPtr(2023))

	require.NoError(t, err)
	names := make([]string, 0, len(result.Contributions))
	for _, r := range result.Contributions {
		names = append(names, r.FullName)
	}
	// dave/c is pruned after 2024 and re-created in 2023.
	assert.Equal(t, []string{"carol/b", "bob/a", "dave/c", "erin/d"}, names)
}
