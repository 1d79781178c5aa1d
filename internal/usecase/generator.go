package usecase

import (
	"context"
	"log"
	"time"

	"github.com/jcaw/jekyll-github-scraper/internal/domain"
	"github.com/jcaw/jekyll-github-scraper/internal/store"
)

// Generator runs the full pipeline: cache check, yearly aggregation, storage.
type Generator struct {
	aggregator *Aggregator
	store      *store.Store
	ttl        time.Duration
	startYear  *int
	logger     *log.Logger
	now        func() time.Time
}

// NewGenerator creates a new Generator instance.
func NewGenerator(aggregator *Aggregator, st *store.Store, ttl time.Duration, startYear *int, logger *log.Logger) *Generator {
	return &Generator{
		aggregator: aggregator,
		store:      st,
		ttl:        ttl,
		startYear:  startYear,
		logger:     logger,
		now:        time.Now,
	}
}

// Outcome describes what a Generate call did.
type Outcome struct {
	// Cached is set when the stored data was fresh and nothing was fetched.
	Cached bool
	Result *domain.Result
}

// Generate refreshes the stored data sets unless all of them are still fresh.
// Nothing is written when any yearly query fails.
func (g *Generator) Generate(ctx context.Context) (*Outcome, error) {
	now := g.now()
	if g.store.Fresh(g.ttl, now) {
		g.logger.Println("Using cached GitHub contributions")
		return &Outcome{Cached: true}, nil
	}

	result, err := g.aggregator.Aggregate(ctx, now.Year(), g.startYear)
	if err != nil {
		return nil, err
	}

	if result.YearsFetched > 0 {
		if err := g.store.Put(store.SlotContributions, result.Contributions); err != nil {
			return nil, err
		}
		if err := g.store.Put(store.SlotSources, result.Sources); err != nil {
			return nil, err
		}
	}
	if result.RecentFetched {
		if err := g.store.Put(store.SlotRecentPRs, result.RecentPullRequests); err != nil {
			return nil, err
		}
	}

	summary := Summarize(result.Sources, result.Contributions)
	g.logger.Printf("Stored %d sources and %d contributions (%d commits, %d PRs, median %.1f commits per repository)\n",
		summary.Sources, summary.Contributions, summary.TotalCommits, summary.TotalPRs, summary.MedianCommits)
	return &Outcome{Result: result}, nil
}
