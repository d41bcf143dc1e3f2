package events

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueReported        EventType = "issue_reported"
	EventIssueStatusChanged   EventType = "issue_status_changed"
	EventIssueAssigned        EventType = "issue_assigned"
	EventIssuePriorityChanged EventType = "issue_priority_changed"
)

// Event represents a domain event emitted after a successful mutation. Events
// are return-path observations for the notification layer, never a push
// channel the engine depends on.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueReportedPayload payload.
type IssueReportedPayload struct {
	Title    string               `json:"title"`
	Category string               `json:"category"`
	Priority domain.IssuePriority `json:"priority"`
	Address  string               `json:"address"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
	Note      string             `json:"note,omitempty"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	AssignedTo string `json:"assigned_to"`
}

// IssuePriorityChangedPayload payload.
type IssuePriorityChangedPayload struct {
	OldPriority domain.IssuePriority `json:"old_priority"`
	NewPriority domain.IssuePriority `json:"new_priority"`
}
