package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/engine"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
)

// IssueService is the host layer around the lifecycle engine: it owns the
// issue collection, threads the clock through, and publishes events after
// successful mutations. Serialization of concurrent updates happens here (in
// the repository), never inside the engine.
type IssueService struct {
	issues     repository.IssueRepository
	engine     *engine.Engine
	clock      engine.Clock
	dispatcher events.Dispatcher
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo  repository.IssueRepository
	Engine     *engine.Engine
	Clock      engine.Clock
	Dispatcher events.Dispatcher
}

// IssueListFilter describes tracker/dashboard listing filters.
type IssueListFilter struct {
	Statuses    []domain.IssueStatus
	Priorities  []domain.IssuePriority
	Categories  []string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	clock := deps.Clock
	if clock == nil {
		clock = engine.SystemClock()
	}
	eng := deps.Engine
	if eng == nil {
		eng = engine.New(clock)
	}
	return &IssueService{
		issues:     deps.IssueRepo,
		engine:     eng,
		clock:      clock,
		dispatcher: deps.Dispatcher,
	}
}

// Report runs intake for a citizen report and stores the resulting issue.
func (s *IssueService) Report(ctx context.Context, input engine.IntakeInput) (*domain.Issue, error) {
	issue, err := s.engine.Intake(input)
	if err != nil {
		return nil, err
	}
	if err := s.issues.Create(ctx, &issue); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueReported,
		IssueID: issue.ID,
		Actor:   issue.ReportedBy,
		Payload: events.IssueReportedPayload{
			Title:    issue.Title,
			Category: issue.Category,
			Priority: issue.Priority,
			Address:  issue.Location.Address,
		},
	})
	return &issue, nil
}

// Update applies a partial update through the engine and replaces the stored
// record. The engine rejects status regressions; a rejected update leaves the
// collection untouched.
func (s *IssueService) Update(ctx context.Context, issueID string, patch engine.UpdatePatch, actor, note string) (*domain.Issue, error) {
	current, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	updated, err := s.engine.ApplyUpdate(*current, patch, actor, note)
	if err != nil {
		return nil, err
	}
	if err := s.issues.Update(ctx, &updated); err != nil {
		return nil, err
	}

	if patch.Status != nil && updated.Status != current.Status {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventIssueStatusChanged,
			IssueID: updated.ID,
			Actor:   actor,
			Payload: events.IssueStatusChangedPayload{
				OldStatus: current.Status,
				NewStatus: updated.Status,
				Note:      note,
			},
		})
	}
	if patch.AssignedTo != nil && updated.AssignedTo != nil &&
		(current.AssignedTo == nil || *current.AssignedTo != *updated.AssignedTo) {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventIssueAssigned,
			IssueID: updated.ID,
			Actor:   actor,
			Payload: events.IssueAssignedPayload{AssignedTo: *updated.AssignedTo},
		})
	}
	if patch.Priority != nil && updated.Priority != current.Priority {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventIssuePriorityChanged,
			IssueID: updated.ID,
			Actor:   actor,
			Payload: events.IssuePriorityChangedPayload{
				OldPriority: current.Priority,
				NewPriority: updated.Priority,
			},
		})
	}
	return &updated, nil
}

// Get returns the full record including the timeline.
func (s *IssueService) Get(ctx context.Context, issueID string) (*domain.Issue, error) {
	return s.issues.GetByID(ctx, issueID)
}

// List returns issues matching the filter, newest first.
func (s *IssueService) List(ctx context.Context, filter IssueListFilter) ([]domain.Issue, error) {
	return s.issues.ListWithFilter(ctx, repository.IssueFilter{
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Categories:  filter.Categories,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
