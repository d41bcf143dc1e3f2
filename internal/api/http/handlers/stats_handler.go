package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/engine"
	"github.com/spec-kit/civic-issue-service/internal/service"
)

// StatsHandler serves dashboard and public statistics.
type StatsHandler struct {
	stats *service.StatsService
	clock engine.Clock
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService, clock engine.Clock) *StatsHandler {
	if clock == nil {
		clock = engine.SystemClock()
	}
	return &StatsHandler{stats: statsService, clock: clock}
}

// Public GET /stats/public.
func (h *StatsHandler) Public(c *fiber.Ctx) error {
	stats, err := h.stats.PublicStats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.statsResponse(stats)})
}

// Dashboard GET /stats/dashboard.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	window := engine.DefaultRecentWindow
	if days, err := strconv.Atoi(c.Query("window_days")); err == nil && days > 0 {
		window = time.Duration(days) * 24 * time.Hour
	}
	stats, err := h.stats.DashboardStats(c.Context(), window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.statsResponse(stats)})
}

// SLA GET /stats/sla.
func (h *StatsHandler) SLA(c *fiber.Ctx) error {
	report, err := h.stats.SLAReport(c.Context())
	if err != nil {
		return err
	}
	now := h.clock.Now()
	entries := make([]dto.SLAReportEntry, 0, len(report))
	for i := range report {
		entries = append(entries, dto.SLAReportEntry{
			Issue: issueSummary(&report[i].Issue, now),
			SLA: dto.SLAResponse{
				Bucket:         report[i].Classification.Bucket,
				RemainingHours: report[i].Classification.RemainingHours,
			},
		})
	}
	return c.JSON(fiber.Map{"data": entries})
}

func (h *StatsHandler) statsResponse(stats engine.Stats) dto.StatsResponse {
	resp := dto.NewStatsResponse(stats)
	now := h.clock.Now()
	resp.RecentPreview = make([]dto.IssueSummary, 0, len(stats.RecentPreview))
	for i := range stats.RecentPreview {
		resp.RecentPreview = append(resp.RecentPreview, issueSummary(&stats.RecentPreview[i], now))
	}
	return resp
}
