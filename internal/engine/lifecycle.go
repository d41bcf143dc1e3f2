package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/pkg/util"
)

const (
	intakeNote        = "Issue reported by citizen"
	maxPhotosPerIssue = 5
	fallbackAddress   = "Location not specified"
	fallbackLatitude  = 40.7128
	fallbackLongitude = -74.0060
)

// Engine validates and applies issue lifecycle operations. It holds no state
// beyond the injected clock; every operation is a pure function from inputs to
// a new Issue value or an error.
type Engine struct {
	clock Clock
}

// New constructs an Engine. A nil clock falls back to the system clock.
func New(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	return &Engine{clock: clock}
}

// IntakeInput describes a citizen report.
type IntakeInput struct {
	Title       string
	Description string
	Category    string
	Priority    domain.IssuePriority
	Location    domain.Location
	Photos      []string
	ReportedBy  string
}

// UpdatePatch is a partial update applied through ApplyUpdate. Nil fields are
// left untouched.
type UpdatePatch struct {
	Status     *domain.IssueStatus
	AssignedTo *string
	Priority   *domain.IssuePriority
}

// Intake constructs a new Issue in status submitted, stamps both timestamps
// and the SLA deadline, and seeds the timeline with the creation event.
func (e *Engine) Intake(input IntakeInput) (domain.Issue, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	reportedBy := strings.TrimSpace(input.ReportedBy)

	missing := map[string]any{}
	if title == "" {
		missing["title"] = "required"
	}
	if description == "" {
		missing["description"] = "required"
	}
	if reportedBy == "" {
		missing["reported_by"] = "required"
	}
	if input.Category == "" {
		missing["category"] = "required"
	}
	if len(missing) > 0 {
		return domain.Issue{}, util.NewValidationError("missing required fields", missing)
	}
	if !domain.ValidCategory(input.Category) {
		return domain.Issue{}, util.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.IssuePriorityMedium
	}
	if !priority.IsValid() {
		return domain.Issue{}, util.NewValidationError("unknown priority", map[string]any{"priority": string(input.Priority)})
	}
	if len(input.Photos) > maxPhotosPerIssue {
		return domain.Issue{}, util.NewValidationError("too many photos", map[string]any{"max": maxPhotosPerIssue})
	}

	location := input.Location
	if strings.TrimSpace(location.Address) == "" {
		location = domain.Location{
			Lat:     fallbackLatitude,
			Lng:     fallbackLongitude,
			Address: fallbackAddress,
		}
	}

	now := e.clock.Now()
	issue := domain.Issue{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Category:    input.Category,
		Priority:    priority,
		Status:      domain.IssueStatusSubmitted,
		Location:    location,
		Photos:      append([]string(nil), input.Photos...),
		ReportedBy:  reportedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
		SLADeadline: DeadlineFor(priority, now),
		Timeline: []domain.TimelineEvent{{
			Timestamp: now,
			Status:    domain.IssueStatusSubmitted,
			Note:      intakeNote,
			UpdatedBy: reportedBy,
		}},
	}
	return issue, nil
}

// ApplyUpdate validates and applies a partial update, returning the updated
// Issue. On any error the input issue is returned unchanged; the caller owns
// persistence of the result.
func (e *Engine) ApplyUpdate(issue domain.Issue, patch UpdatePatch, actor, note string) (domain.Issue, error) {
	if strings.TrimSpace(actor) == "" {
		return issue, util.NewValidationError("actor required", nil)
	}

	updated := issue.Clone()
	now := e.clock.Now()
	changed := false

	if patch.Status != nil && *patch.Status != issue.Status {
		target := *patch.Status
		targetOrd, ok := target.Ordinal()
		if !ok {
			return issue, util.NewValidationError("unknown status", map[string]any{"status": string(target)})
		}
		currentOrd, ok := issue.Status.Ordinal()
		if !ok {
			return issue, util.NewValidationError("issue has unknown status", map[string]any{"status": string(issue.Status)})
		}
		// Forward jumps are allowed; city workflows vary. Only regressions in
		// the canonical sequence are rejected.
		if targetOrd < currentOrd {
			return issue, util.NewInvalidTransition(
				fmt.Sprintf("cannot move issue from %s back to %s", issue.Status, target),
				map[string]any{"from": string(issue.Status), "to": string(target)},
			)
		}
		updated.Status = target
		updated.Timeline = append(updated.Timeline, domain.TimelineEvent{
			Timestamp: now,
			Status:    target,
			Note:      note,
			UpdatedBy: actor,
		})
		changed = true
	}

	if patch.AssignedTo != nil && (issue.AssignedTo == nil || *issue.AssignedTo != *patch.AssignedTo) {
		assignee := *patch.AssignedTo
		updated.AssignedTo = &assignee
		annotationNote := note
		if annotationNote == "" {
			annotationNote = fmt.Sprintf("Assigned to %s", assignee)
		}
		updated.Timeline = append(updated.Timeline, domain.TimelineEvent{
			Timestamp:  now,
			Annotation: domain.AnnotationAssigned,
			Note:       annotationNote,
			UpdatedBy:  actor,
		})
		changed = true
	}

	if patch.Priority != nil && *patch.Priority != issue.Priority {
		priority := *patch.Priority
		if !priority.IsValid() {
			return issue, util.NewValidationError("unknown priority", map[string]any{"priority": string(priority)})
		}
		// The SLA deadline stays as stamped at intake; re-prioritizing does
		// not re-baseline the clock.
		updated.Priority = priority
		updated.Timeline = append(updated.Timeline, domain.TimelineEvent{
			Timestamp:  now,
			Annotation: domain.AnnotationPriorityChanged,
			Note:       fmt.Sprintf("Priority changed from %s to %s", issue.Priority, priority),
			UpdatedBy:  actor,
		})
		changed = true
	}

	if !changed {
		return issue, nil
	}
	updated.UpdatedAt = now
	return updated, nil
}
