package usecase

import (
	"github.com/montanaflynn/stats"

	"github.com/jcaw/jekyll-github-scraper/internal/domain"
)

// Summarize totals the accumulators of every record and the median commit
// count per repository.
func Summarize(sources, contributions []*domain.RepositoryRecord) domain.Summary {
	summary := domain.Summary{
		Sources:       len(sources),
		Contributions: len(contributions),
	}
	commits := make(stats.Float64Data, 0, len(sources)+len(contributions))
	for _, group := range [][]*domain.RepositoryRecord{sources, contributions} {
		for _, r := range group {
			summary.TotalCommits += r.NCommits
			summary.TotalPRs += r.NPRs
			commits = append(commits, float64(r.NCommits))
		}
	}
	if median, err := stats.Median(commits); err == nil {
		summary.MedianCommits = median
	}
	return summary
}
