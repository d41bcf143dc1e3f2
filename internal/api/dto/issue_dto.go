package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/engine"
)

// LocationPayload mirrors domain.Location on the wire.
type LocationPayload struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// ReportIssueRequest payload for citizen intake.
type ReportIssueRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Priority    domain.IssuePriority `json:"priority"`
	Location    LocationPayload      `json:"location"`
	Photos      []string             `json:"photos"`
	ReportedBy  string               `json:"reported_by"`
}

// UpdateIssueRequest is a partial update. The actor is explicit on every
// mutating request, never inferred from server state.
type UpdateIssueRequest struct {
	Status     *domain.IssueStatus   `json:"status,omitempty"`
	AssignedTo *string               `json:"assigned_to,omitempty"`
	Priority   *domain.IssuePriority `json:"priority,omitempty"`
	Actor      string                `json:"actor"`
	Note       string                `json:"note,omitempty"`
}

// SLAResponse is the derived compliance classification.
type SLAResponse struct {
	Bucket         engine.SLABucket `json:"bucket"`
	RemainingHours int              `json:"remaining_hours"`
}

// IssueSummary response for list views; timeline omitted.
type IssueSummary struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Category    string               `json:"category"`
	Priority    domain.IssuePriority `json:"priority"`
	Status      domain.IssueStatus   `json:"status"`
	Location    LocationPayload      `json:"location"`
	ReportedBy  string               `json:"reported_by"`
	AssignedTo  *string              `json:"assigned_to,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	SLADeadline time.Time            `json:"sla_deadline"`
	SLA         SLAResponse          `json:"sla"`
}

// TimelineEventResponse is one audit entry.
type TimelineEventResponse struct {
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status,omitempty"`
	Annotation string    `json:"annotation,omitempty"`
	Note       string    `json:"note,omitempty"`
	UpdatedBy  string    `json:"updated_by"`
}

// IssueDetailResponse provides the full record including the timeline.
type IssueDetailResponse struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Category    string                  `json:"category"`
	Priority    domain.IssuePriority    `json:"priority"`
	Status      domain.IssueStatus      `json:"status"`
	Location    LocationPayload         `json:"location"`
	Photos      []string                `json:"photos"`
	ReportedBy  string                  `json:"reported_by"`
	AssignedTo  *string                 `json:"assigned_to,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	SLADeadline time.Time               `json:"sla_deadline"`
	SLA         SLAResponse             `json:"sla"`
	Timeline    []TimelineEventResponse `json:"timeline"`
}
