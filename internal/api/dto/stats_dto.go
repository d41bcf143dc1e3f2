package dto

import (
	"math"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/engine"
)

// CategoryCountResponse is one row of the category breakdown, ordered by
// descending count.
type CategoryCountResponse struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// StatsResponse mirrors engine.Stats for dashboard and public consumers.
// Rates are whole percentages, matching how the public page displays them.
type StatsResponse struct {
	Total              int                        `json:"total"`
	ByStatus           map[domain.IssueStatus]int `json:"by_status"`
	ByCategory         []CategoryCountResponse    `json:"by_category"`
	OverdueOpen        int                        `json:"overdue_open"`
	ResolutionRatePct  int                        `json:"resolution_rate_pct"`
	AvgResolutionHours int                        `json:"avg_resolution_hours"`
	OnTimeRatePct      int                        `json:"on_time_rate_pct"`
	RecentCount        int                        `json:"recent_count"`
	RecentPreview      []IssueSummary             `json:"recent_preview"`
}

// SLAReportEntry is one row of the SLA monitor.
type SLAReportEntry struct {
	Issue IssueSummary `json:"issue"`
	SLA   SLAResponse  `json:"sla"`
}

// NewStatsResponse converts engine stats to the wire shape, leaving the
// recent preview for the handler to fill in (it needs SLA evaluation).
func NewStatsResponse(stats engine.Stats) StatsResponse {
	byCategory := make([]CategoryCountResponse, 0, len(stats.ByCategory))
	for _, entry := range stats.ByCategory {
		byCategory = append(byCategory, CategoryCountResponse{Category: entry.Category, Count: entry.Count})
	}
	return StatsResponse{
		Total:              stats.Total,
		ByStatus:           stats.ByStatus,
		ByCategory:         byCategory,
		OverdueOpen:        stats.OverdueOpen,
		ResolutionRatePct:  roundPct(stats.ResolutionRate),
		AvgResolutionHours: int(math.Round(stats.AvgResolutionHours)),
		OnTimeRatePct:      roundPct(stats.OnTimeRate),
		RecentCount:        stats.RecentCount,
	}
}

func roundPct(fraction float64) int {
	return int(math.Round(fraction * 100))
}
