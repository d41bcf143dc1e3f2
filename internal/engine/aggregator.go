package engine

import (
	"sort"
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// DefaultRecentWindow bounds the "recent activity" statistics.
const DefaultRecentWindow = 7 * 24 * time.Hour

const recentPreviewLimit = 5

// CategoryCount pairs a category with its issue count, for display consumers
// that want the breakdown ordered.
type CategoryCount struct {
	Category string
	Count    int
}

// Stats are fleet-wide statistics over an issue collection. Rates are
// fractions in [0, 1]; presentation layers round to percentages.
type Stats struct {
	Total              int
	ByStatus           map[domain.IssueStatus]int
	ByCategory         []CategoryCount
	OverdueOpen        int
	ResolutionRate     float64
	AvgResolutionHours float64
	OnTimeRate         float64
	RecentCount        int
	RecentPreview      []domain.Issue
}

// Aggregate computes statistics over the given collection at the given
// instant. A non-positive window falls back to DefaultRecentWindow. An empty
// collection yields zero rates, never an error.
func Aggregate(issues []domain.Issue, now time.Time, window time.Duration) Stats {
	if window <= 0 {
		window = DefaultRecentWindow
	}

	stats := Stats{
		Total:    len(issues),
		ByStatus: make(map[domain.IssueStatus]int),
	}

	byCategory := make(map[string]int)
	cutoff := now.Add(-window)
	recent := make([]domain.Issue, 0, len(issues))
	var (
		resolved             int
		onTime               int
		totalResolutionHours float64
	)

	for _, issue := range issues {
		stats.ByStatus[issue.Status]++
		byCategory[issue.Category]++

		if issue.SLADeadline.Before(now) && !issue.Status.IsTerminal() {
			stats.OverdueOpen++
		}
		if issue.Status == domain.IssueStatusResolved {
			resolved++
			totalResolutionHours += issue.UpdatedAt.Sub(issue.CreatedAt).Hours()
			if !issue.UpdatedAt.After(issue.SLADeadline) {
				onTime++
			}
		}
		if !issue.CreatedAt.Before(cutoff) {
			recent = append(recent, issue)
		}
	}

	stats.ByCategory = make([]CategoryCount, 0, len(byCategory))
	for category, count := range byCategory {
		stats.ByCategory = append(stats.ByCategory, CategoryCount{Category: category, Count: count})
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		if stats.ByCategory[i].Count != stats.ByCategory[j].Count {
			return stats.ByCategory[i].Count > stats.ByCategory[j].Count
		}
		return stats.ByCategory[i].Category < stats.ByCategory[j].Category
	})

	if stats.Total > 0 {
		stats.ResolutionRate = float64(resolved) / float64(stats.Total)
	}
	if resolved > 0 {
		stats.AvgResolutionHours = totalResolutionHours / float64(resolved)
		stats.OnTimeRate = float64(onTime) / float64(resolved)
	}

	sort.Slice(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	stats.RecentCount = len(recent)
	if len(recent) > recentPreviewLimit {
		recent = recent[:recentPreviewLimit]
	}
	stats.RecentPreview = recent

	return stats
}
