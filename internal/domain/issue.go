package domain

import "time"

// IssueStatus enumerates lifecycle states for reported issues. The declaration
// order is the canonical workflow sequence used by the transition rule.
type IssueStatus string

const (
	IssueStatusSubmitted  IssueStatus = "submitted"
	IssueStatusReviewed   IssueStatus = "reviewed"
	IssueStatusInProgress IssueStatus = "in-progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
)

// statusOrder maps each status to its position in the canonical sequence.
var statusOrder = map[IssueStatus]int{
	IssueStatusSubmitted:  0,
	IssueStatusReviewed:   1,
	IssueStatusInProgress: 2,
	IssueStatusResolved:   3,
	IssueStatusClosed:     4,
}

// Ordinal returns the status position in the canonical workflow sequence and
// whether the status is a known one.
func (s IssueStatus) Ordinal() (int, bool) {
	ord, ok := statusOrder[s]
	return ord, ok
}

// IsTerminal reports whether the issue no longer counts as open work.
func (s IssueStatus) IsTerminal() bool {
	return s == IssueStatusResolved || s == IssueStatusClosed
}

// IssuePriority enumerates SLA urgency.
type IssuePriority string

const (
	IssuePriorityLow    IssuePriority = "low"
	IssuePriorityMedium IssuePriority = "medium"
	IssuePriorityHigh   IssuePriority = "high"
	IssuePriorityUrgent IssuePriority = "urgent"
)

// IsValid reports whether p is a member of the closed priority set.
func (p IssuePriority) IsValid() bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityUrgent:
		return true
	}
	return false
}

// Categories is the fixed set of municipal issue categories.
var Categories = []string{
	"Roads & Infrastructure",
	"Public Safety",
	"Parks & Recreation",
	"Water & Utilities",
	"Waste Management",
	"Traffic & Transportation",
	"Building & Zoning",
	"Other",
}

// ValidCategory reports whether the category is in the fixed set.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Location pins an issue to a place. Address may carry the fallback text when
// the reporter supplied no address.
type Location struct {
	Lat     float64
	Lng     float64
	Address string
}

// Issue is the aggregate for a citizen-reported problem. Records are never
// deleted; closed issues stay in the collection for audit and statistics.
type Issue struct {
	ID          string
	Title       string
	Description string
	Category    string
	Priority    IssuePriority
	Status      IssueStatus
	Location    Location
	Photos      []string
	ReportedBy  string
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	// SLADeadline is stamped once at intake and never recomputed, even when
	// priority changes later.
	SLADeadline time.Time
	Timeline    []TimelineEvent
}

// Clone returns a deep copy so callers can hand issues across boundaries
// without aliasing the timeline or photo slices.
func (i Issue) Clone() Issue {
	out := i
	if i.Photos != nil {
		out.Photos = append([]string(nil), i.Photos...)
	}
	if i.Timeline != nil {
		out.Timeline = append([]TimelineEvent(nil), i.Timeline...)
	}
	if i.AssignedTo != nil {
		assignee := *i.AssignedTo
		out.AssignedTo = &assignee
	}
	return out
}
