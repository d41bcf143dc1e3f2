package domain

import "time"

// Annotation labels a timeline entry that records a non-status change.
type Annotation string

const (
	AnnotationAssigned        Annotation = "assigned"
	AnnotationPriorityChanged Annotation = "priority-changed"
)

// TimelineEvent is an immutable audit entry. Exactly one of Status or
// Annotation is set: entries carrying a recognized status record a lifecycle
// transition, entries carrying an annotation record everything else.
type TimelineEvent struct {
	Timestamp  time.Time
	Status     IssueStatus
	Annotation Annotation
	Note       string
	UpdatedBy  string
}

// IsStatusEvent reports whether the entry records a lifecycle transition.
func (e TimelineEvent) IsStatusEvent() bool {
	_, ok := e.Status.Ordinal()
	return ok
}
