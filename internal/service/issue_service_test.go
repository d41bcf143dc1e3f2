package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/engine"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/pkg/util"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type capturedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturedEvents) record(_ context.Context, event events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturedEvents) types() []events.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.EventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestService(start time.Time) (*IssueService, *fakeClock, *capturedEvents) {
	clock := &fakeClock{now: start}
	dispatcher := events.NewInMemoryDispatcher()
	captured := &capturedEvents{}
	dispatcher.Subscribe(events.EventIssueReported, captured.record)
	dispatcher.Subscribe(events.EventIssueStatusChanged, captured.record)
	dispatcher.Subscribe(events.EventIssueAssigned, captured.record)
	dispatcher.Subscribe(events.EventIssuePriorityChanged, captured.record)

	svc := NewIssueService(IssueDependencies{
		IssueRepo:  repository.NewMemoryIssueRepository(),
		Engine:     engine.New(clock),
		Clock:      clock,
		Dispatcher: dispatcher,
	})
	return svc, clock, captured
}

func reportInput(priority domain.IssuePriority) engine.IntakeInput {
	return engine.IntakeInput{
		Title:       "Broken streetlight",
		Description: "Streetlight not working, creating safety hazard",
		Category:    "Public Safety",
		Priority:    priority,
		Location:    domain.Location{Lat: 40.758, Lng: -73.9855, Address: "456 Oak Avenue"},
		ReportedBy:  "Sarah Smith",
	}
}

func TestUrgentIssueLifecycle(t *testing.T) {
	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	svc, clock, captured := newTestService(start)
	ctx := context.Background()

	issue, err := svc.Report(ctx, reportInput(domain.IssuePriorityUrgent))
	require.NoError(t, err)
	assert.Equal(t, start.Add(4*time.Hour), issue.SLADeadline)

	clock.Advance(3 * time.Hour)
	classification := engine.Evaluate(*issue, clock.Now())
	assert.Equal(t, engine.BucketAtRisk, classification.Bucket)
	assert.Equal(t, 1, classification.RemainingHours)

	clock.Advance(30 * time.Minute)
	resolved := domain.IssueStatusResolved
	updated, err := svc.Update(ctx, issue.ID, engine.UpdatePatch{Status: &resolved}, "Electrical Team", "repaired and tested")
	require.NoError(t, err)

	classification = engine.Evaluate(*updated, clock.Now())
	assert.Equal(t, engine.BucketMet, classification.Bucket)

	all, err := svc.List(ctx, IssueListFilter{})
	require.NoError(t, err)
	stats := engine.Aggregate(all, clock.Now(), 0)
	assert.InDelta(t, 1.0, stats.ResolutionRate, 1e-9)
	assert.InDelta(t, 1.0, stats.OnTimeRate, 1e-9)

	assert.Equal(t, []events.EventType{
		events.EventIssueReported,
		events.EventIssueStatusChanged,
	}, captured.types())
}

func TestLowPriorityIssueGoesOverdue(t *testing.T) {
	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	svc, clock, _ := newTestService(start)
	ctx := context.Background()

	issue, err := svc.Report(ctx, reportInput(domain.IssuePriorityLow))
	require.NoError(t, err)
	assert.Equal(t, start.Add(72*time.Hour), issue.SLADeadline)

	clock.Advance(73 * time.Hour)
	classification := engine.Evaluate(*issue, clock.Now())
	assert.Equal(t, engine.BucketOverdue, classification.Bucket)
	assert.Equal(t, 0, classification.RemainingHours)
}

func TestUpdate_UnknownIssue(t *testing.T) {
	svc, _, captured := newTestService(time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC))

	reviewed := domain.IssueStatusReviewed
	_, err := svc.Update(context.Background(), "missing-id", engine.UpdatePatch{Status: &reviewed}, "City Staff", "")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeNotFound))
	assert.Empty(t, captured.types())
}

func TestUpdate_RegressionLeavesStoredRecordUnchanged(t *testing.T) {
	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	svc, clock, _ := newTestService(start)
	ctx := context.Background()

	issue, err := svc.Report(ctx, reportInput(domain.IssuePriorityHigh))
	require.NoError(t, err)

	clock.Advance(time.Hour)
	inProgress := domain.IssueStatusInProgress
	updated, err := svc.Update(ctx, issue.ID, engine.UpdatePatch{Status: &inProgress}, "Operations Manager", "")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	submitted := domain.IssueStatusSubmitted
	_, err = svc.Update(ctx, issue.ID, engine.UpdatePatch{Status: &submitted}, "Operations Manager", "")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeInvalidTransition))

	stored, err := svc.Get(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated, *stored)
}

func TestUpdate_AssignmentPublishesEvent(t *testing.T) {
	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	svc, clock, captured := newTestService(start)
	ctx := context.Background()

	issue, err := svc.Report(ctx, reportInput(domain.IssuePriorityMedium))
	require.NoError(t, err)

	clock.Advance(time.Hour)
	assignee := "Electrical Team"
	updated, err := svc.Update(ctx, issue.ID, engine.UpdatePatch{AssignedTo: &assignee}, "Operations Manager", "")
	require.NoError(t, err)

	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, assignee, *updated.AssignedTo)
	assert.Equal(t, []events.EventType{
		events.EventIssueReported,
		events.EventIssueAssigned,
	}, captured.types())
}

func TestUpdate_PriorityChangePreservesDeadline(t *testing.T) {
	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	svc, clock, captured := newTestService(start)
	ctx := context.Background()

	issue, err := svc.Report(ctx, reportInput(domain.IssuePriorityMedium))
	require.NoError(t, err)

	clock.Advance(time.Hour)
	urgent := domain.IssuePriorityUrgent
	updated, err := svc.Update(ctx, issue.ID, engine.UpdatePatch{Priority: &urgent}, "City Staff", "")
	require.NoError(t, err)

	assert.Equal(t, issue.SLADeadline, updated.SLADeadline)
	assert.Contains(t, captured.types(), events.EventIssuePriorityChanged)

	stored, err := svc.Get(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, issue.SLADeadline, stored.SLADeadline)
}

func TestList_Filters(t *testing.T) {
	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	svc, clock, _ := newTestService(start)
	ctx := context.Background()

	first, err := svc.Report(ctx, engine.IntakeInput{
		Title:       "Pothole on Main Street",
		Description: "Large pothole near the intersection",
		Category:    "Roads & Infrastructure",
		Priority:    domain.IssuePriorityHigh,
		ReportedBy:  "John Citizen",
	})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = svc.Report(ctx, reportInput(domain.IssuePriorityMedium))
	require.NoError(t, err)

	roads, err := svc.List(ctx, IssueListFilter{Categories: []string{"Roads & Infrastructure"}})
	require.NoError(t, err)
	require.Len(t, roads, 1)
	assert.Equal(t, first.ID, roads[0].ID)

	search := "pothole"
	matched, err := svc.List(ctx, IssueListFilter{SearchTerm: &search})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, first.ID, matched[0].ID)

	all, err := svc.List(ctx, IssueListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt), "listing is newest first")
}
