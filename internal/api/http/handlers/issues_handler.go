package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/engine"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// Default notes substituted when a status change arrives without one.
var statusNotes = map[domain.IssueStatus]string{
	domain.IssueStatusReviewed:   "Issue reviewed and prioritized by staff",
	domain.IssueStatusInProgress: "Work has begun on this issue",
	domain.IssueStatusResolved:   "Issue has been resolved",
	domain.IssueStatusClosed:     "Issue closed and completed",
}

// IssuesHandler manages issue intake, listing and updates.
type IssuesHandler struct {
	service *service.IssueService
	clock   engine.Clock
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService, clock engine.Clock) *IssuesHandler {
	if clock == nil {
		clock = engine.SystemClock()
	}
	return &IssuesHandler{service: issueService, clock: clock}
}

// Report POST /issues.
func (h *IssuesHandler) Report(c *fiber.Ctx) error {
	var req dto.ReportIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.service.Report(c.Context(), engine.IntakeInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Location: domain.Location{
			Lat:     req.Location.Lat,
			Lng:     req.Location.Lng,
			Address: req.Location.Address,
		},
		Photos:     req.Photos,
		ReportedBy: req.ReportedBy,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": issueDetail(issue, h.clock.Now())})
}

// List GET /issues.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	filter := parseIssueQuery(c)
	issues, err := h.service.List(c.Context(), filter)
	if err != nil {
		return err
	}
	now := h.clock.Now()
	items := make([]dto.IssueSummary, 0, len(issues))
	for i := range issues {
		items = append(items, issueSummary(&issues[i], now))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	issue, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueDetail(issue, h.clock.Now())})
}

// Update PATCH /issues/:id.
func (h *IssuesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Actor) == "" {
		return apperrors.NewValidationError("actor required", nil)
	}

	note := req.Note
	if note == "" && req.Status != nil {
		if canned, ok := statusNotes[*req.Status]; ok {
			note = canned
		} else {
			note = fmt.Sprintf("Status updated to %s", *req.Status)
		}
	}

	issue, err := h.service.Update(c.Context(), c.Params("id"), engine.UpdatePatch{
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
		Priority:   req.Priority,
	}, req.Actor, note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueDetail(issue, h.clock.Now())})
}

func parseIssueQuery(c *fiber.Ctx) service.IssueListFilter {
	filter := service.IssueListFilter{}

	for _, raw := range splitQueryList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.IssueStatus(raw))
	}
	for _, raw := range splitQueryList(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.IssuePriority(raw))
	}
	filter.Categories = splitQueryList(c.Query("category"))

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.SearchTerm = &q
	}
	if from, err := time.Parse(time.RFC3339, c.Query("created_from")); err == nil {
		filter.CreatedFrom = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("created_to")); err == nil {
		filter.CreatedTo = &to
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize
	return filter
}

func splitQueryList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func issueSummary(issue *domain.Issue, now time.Time) dto.IssueSummary {
	classification := engine.Evaluate(*issue, now)
	return dto.IssueSummary{
		ID:       issue.ID,
		Title:    issue.Title,
		Category: issue.Category,
		Priority: issue.Priority,
		Status:   issue.Status,
		Location: dto.LocationPayload{
			Lat:     issue.Location.Lat,
			Lng:     issue.Location.Lng,
			Address: issue.Location.Address,
		},
		ReportedBy:  issue.ReportedBy,
		AssignedTo:  issue.AssignedTo,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
		SLADeadline: issue.SLADeadline,
		SLA: dto.SLAResponse{
			Bucket:         classification.Bucket,
			RemainingHours: classification.RemainingHours,
		},
	}
}

func issueDetail(issue *domain.Issue, now time.Time) dto.IssueDetailResponse {
	classification := engine.Evaluate(*issue, now)
	timeline := make([]dto.TimelineEventResponse, 0, len(issue.Timeline))
	for _, event := range issue.Timeline {
		timeline = append(timeline, dto.TimelineEventResponse{
			Timestamp:  event.Timestamp,
			Status:     string(event.Status),
			Annotation: string(event.Annotation),
			Note:       event.Note,
			UpdatedBy:  event.UpdatedBy,
		})
	}
	return dto.IssueDetailResponse{
		ID:          issue.ID,
		Title:       issue.Title,
		Description: issue.Description,
		Category:    issue.Category,
		Priority:    issue.Priority,
		Status:      issue.Status,
		Location: dto.LocationPayload{
			Lat:     issue.Location.Lat,
			Lng:     issue.Location.Lng,
			Address: issue.Location.Address,
		},
		Photos:      issue.Photos,
		ReportedBy:  issue.ReportedBy,
		AssignedTo:  issue.AssignedTo,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
		SLADeadline: issue.SLADeadline,
		SLA: dto.SLAResponse{
			Bucket:         classification.Bucket,
			RemainingHours: classification.RemainingHours,
		},
		Timeline: timeline,
	}
}
