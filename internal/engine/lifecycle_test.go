package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/pkg/util"
)

var testStart = time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)

func validIntake() IntakeInput {
	return IntakeInput{
		Title:       "Pothole on Main Street",
		Description: "Large pothole causing damage to vehicles",
		Category:    "Roads & Infrastructure",
		Priority:    domain.IssuePriorityHigh,
		Location:    domain.Location{Lat: 40.7128, Lng: -74.0060, Address: "123 Main St"},
		ReportedBy:  "John Citizen",
	}
}

func TestIntake(t *testing.T) {
	clock := &fakeClock{now: testStart}
	eng := New(clock)

	issue, err := eng.Intake(validIntake())
	require.NoError(t, err)

	assert.NotEmpty(t, issue.ID)
	assert.Equal(t, domain.IssueStatusSubmitted, issue.Status)
	assert.Equal(t, testStart, issue.CreatedAt)
	assert.Equal(t, testStart, issue.UpdatedAt)
	assert.Equal(t, testStart.Add(24*time.Hour), issue.SLADeadline)

	require.Len(t, issue.Timeline, 1)
	assert.Equal(t, domain.IssueStatusSubmitted, issue.Timeline[0].Status)
	assert.Equal(t, "John Citizen", issue.Timeline[0].UpdatedBy)
	assert.Equal(t, testStart, issue.Timeline[0].Timestamp)
	assert.True(t, issue.Timeline[0].IsStatusEvent())
}

func TestIntake_Validation(t *testing.T) {
	eng := New(FixedClock{Instant: testStart})

	tests := []struct {
		name   string
		mutate func(*IntakeInput)
	}{
		{"empty title", func(in *IntakeInput) { in.Title = "  " }},
		{"empty description", func(in *IntakeInput) { in.Description = "" }},
		{"empty reporter", func(in *IntakeInput) { in.ReportedBy = "" }},
		{"empty category", func(in *IntakeInput) { in.Category = "" }},
		{"unknown category", func(in *IntakeInput) { in.Category = "Potholes" }},
		{"unknown priority", func(in *IntakeInput) { in.Priority = "critical" }},
		{"too many photos", func(in *IntakeInput) {
			in.Photos = []string{"a", "b", "c", "d", "e", "f"}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validIntake()
			tc.mutate(&input)
			_, err := eng.Intake(input)
			require.Error(t, err)
			assert.True(t, util.IsCode(err, util.CodeValidationFailed))
		})
	}
}

func TestIntake_Defaults(t *testing.T) {
	eng := New(FixedClock{Instant: testStart})

	input := validIntake()
	input.Priority = ""
	input.Location = domain.Location{}

	issue, err := eng.Intake(input)
	require.NoError(t, err)
	assert.Equal(t, domain.IssuePriorityMedium, issue.Priority)
	assert.Equal(t, "Location not specified", issue.Location.Address)
	assert.Equal(t, testStart.Add(72*time.Hour), issue.SLADeadline)
}

func TestApplyUpdate_StatusForward(t *testing.T) {
	clock := &fakeClock{now: testStart}
	eng := New(clock)

	issue, err := eng.Intake(validIntake())
	require.NoError(t, err)

	clock.Advance(time.Hour)
	reviewed := domain.IssueStatusReviewed
	updated, err := eng.ApplyUpdate(issue, UpdatePatch{Status: &reviewed}, "City Inspector", "prioritized")
	require.NoError(t, err)

	assert.Equal(t, domain.IssueStatusReviewed, updated.Status)
	assert.Equal(t, clock.now, updated.UpdatedAt)
	require.Len(t, updated.Timeline, 2)
	assert.Equal(t, domain.IssueStatusReviewed, updated.Timeline[1].Status)
	assert.Equal(t, "City Inspector", updated.Timeline[1].UpdatedBy)
	assert.Equal(t, "prioritized", updated.Timeline[1].Note)

	// Input value stays untouched; the engine returns a new record.
	assert.Equal(t, domain.IssueStatusSubmitted, issue.Status)
	assert.Len(t, issue.Timeline, 1)
}

func TestApplyUpdate_SkippingStatesAllowed(t *testing.T) {
	clock := &fakeClock{now: testStart}
	eng := New(clock)

	issue, err := eng.Intake(validIntake())
	require.NoError(t, err)

	clock.Advance(time.Hour)
	resolved := domain.IssueStatusResolved
	updated, err := eng.ApplyUpdate(issue, UpdatePatch{Status: &resolved}, "Road Crew", "")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusResolved, updated.Status)
}

func TestApplyUpdate_RejectsRegression(t *testing.T) {
	clock := &fakeClock{now: testStart}
	eng := New(clock)

	issue, err := eng.Intake(validIntake())
	require.NoError(t, err)
	inProgress := domain.IssueStatusInProgress
	issue, err = eng.ApplyUpdate(issue, UpdatePatch{Status: &inProgress}, "Operations Manager", "")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	submitted := domain.IssueStatusSubmitted
	result, err := eng.ApplyUpdate(issue, UpdatePatch{Status: &submitted}, "Operations Manager", "")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeInvalidTransition))
	assert.Equal(t, issue, result, "rejected update must leave the record unchanged")
}

func TestApplyUpdate_ClosedIsTerminal(t *testing.T) {
	clock := &fakeClock{now: testStart}
	eng := New(clock)

	issue, err := eng.Intake(validIntake())
	require.NoError(t, err)
	closed := domain.IssueStatusClosed
	issue, err = eng.ApplyUpdate(issue, UpdatePatch{Status: &closed}, "City Staff", "")
	require.NoError(t, err)

	resolved := domain.IssueStatusResolved
	_, err = eng.ApplyUpdate(issue, UpdatePatch{Status: &resolved}, "City Staff", "")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeInvalidTransition))
}

func TestApplyUpdate_PriorityChangeKeepsDeadline(t *testing.T) {
	clock := &fakeClock{now: testStart}
	eng := New(clock)

	issue, err := eng.Intake(validIntake())
	require.NoError(t, err)
	originalDeadline := issue.SLADeadline

	clock.Advance(2 * time.Hour)
	urgent := domain.IssuePriorityUrgent
	updated, err := eng.ApplyUpdate(issue, UpdatePatch{Priority: &urgent}, "City Staff", "")
	require.NoError(t, err)

	assert.Equal(t, domain.IssuePriorityUrgent, updated.Priority)
	assert.Equal(t, originalDeadline, updated.SLADeadline, "re-prioritizing must not re-baseline the deadline")
	assert.Equal(t, clock.now, updated.UpdatedAt)
	require.Len(t, updated.Timeline, 2)
	assert.Equal(t, domain.AnnotationPriorityChanged, updated.Timeline[1].Annotation)
	assert.False(t, updated.Timeline[1].IsStatusEvent())
}

func TestApplyUpdate_Assignment(t *testing.T) {
	clock := &fakeClock{now: testStart}
	eng := New(clock)

	issue, err := eng.Intake(validIntake())
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	assignee := "Road Maintenance Team"
	updated, err := eng.ApplyUpdate(issue, UpdatePatch{AssignedTo: &assignee}, "Operations Manager", "")
	require.NoError(t, err)

	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, assignee, *updated.AssignedTo)
	assert.Equal(t, domain.IssueStatusSubmitted, updated.Status)
	assert.Equal(t, clock.now, updated.UpdatedAt)

	// Assignment appends an annotation entry, not a status entry.
	require.Len(t, updated.Timeline, 2)
	assert.Equal(t, domain.AnnotationAssigned, updated.Timeline[1].Annotation)
	assert.False(t, updated.Timeline[1].IsStatusEvent())
	assert.Equal(t, "Assigned to Road Maintenance Team", updated.Timeline[1].Note)
}

func TestApplyUpdate_EmptyPatch(t *testing.T) {
	clock := &fakeClock{now: testStart}
	eng := New(clock)

	issue, err := eng.Intake(validIntake())
	require.NoError(t, err)

	clock.Advance(time.Hour)
	updated, err := eng.ApplyUpdate(issue, UpdatePatch{}, "City Staff", "")
	require.NoError(t, err)
	assert.Equal(t, issue, updated)
}

func TestApplyUpdate_RequiresActor(t *testing.T) {
	eng := New(FixedClock{Instant: testStart})

	issue, err := eng.Intake(validIntake())
	require.NoError(t, err)

	reviewed := domain.IssueStatusReviewed
	_, err = eng.ApplyUpdate(issue, UpdatePatch{Status: &reviewed}, " ", "")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeValidationFailed))
}

func TestTimelineMonotonicity(t *testing.T) {
	clock := &fakeClock{now: testStart}
	eng := New(clock)

	issue, err := eng.Intake(validIntake())
	require.NoError(t, err)

	steps := []struct {
		advance time.Duration
		status  domain.IssueStatus
	}{
		{75 * time.Minute, domain.IssueStatusReviewed},
		{3 * time.Hour, domain.IssueStatusInProgress},
		{26 * time.Hour, domain.IssueStatusResolved},
		{time.Hour, domain.IssueStatusClosed},
	}
	for _, step := range steps {
		clock.Advance(step.advance)
		status := step.status
		issue, err = eng.ApplyUpdate(issue, UpdatePatch{Status: &status}, "City Staff", "")
		require.NoError(t, err)
	}

	require.Len(t, issue.Timeline, 5)
	for i := 1; i < len(issue.Timeline); i++ {
		assert.False(t, issue.Timeline[i].Timestamp.Before(issue.Timeline[i-1].Timestamp),
			"timeline entry %d out of order", i)
	}
	assert.True(t, issue.CreatedAt.Before(issue.UpdatedAt) || issue.CreatedAt.Equal(issue.UpdatedAt))
}
