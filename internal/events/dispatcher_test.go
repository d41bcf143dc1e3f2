package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_PublishInvokesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []string

	d.Subscribe(EventIssueReported, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.IssueID)
		return nil
	})
	d.Subscribe(EventIssueReported, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.IssueID)
		return nil
	})
	d.Subscribe(EventIssueAssigned, func(_ context.Context, e Event) error {
		seen = append(seen, "assigned")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventIssueReported, IssueID: "issue-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:issue-1", "second:issue-1"}, seen)
}

func TestDispatcher_HandlerErrorDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	var called int

	d.Subscribe(EventIssueStatusChanged, func(context.Context, Event) error {
		called++
		return boom
	})
	d.Subscribe(EventIssueStatusChanged, func(context.Context, Event) error {
		called++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventIssueStatusChanged})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, called)
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	err := d.Publish(context.Background(), Event{Type: EventIssuePriorityChanged})
	assert.NoError(t, err)
}
