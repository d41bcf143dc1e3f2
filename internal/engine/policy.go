package engine

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// Response-time allowances per priority. The priority enum is closed, so a new
// priority must extend this mapping in the same change.
const (
	allowanceUrgent  = 4 * time.Hour
	allowanceHigh    = 24 * time.Hour
	allowanceDefault = 72 * time.Hour
)

// ResponseAllowance returns how long the city has to respond to an issue of
// the given priority.
func ResponseAllowance(priority domain.IssuePriority) time.Duration {
	switch priority {
	case domain.IssuePriorityUrgent:
		return allowanceUrgent
	case domain.IssuePriorityHigh:
		return allowanceHigh
	case domain.IssuePriorityMedium, domain.IssuePriorityLow:
		return allowanceDefault
	}
	return allowanceDefault
}

// DeadlineFor stamps the SLA deadline for an issue created at the given time.
// The deadline is fixed at creation and never recomputed afterwards.
func DeadlineFor(priority domain.IssuePriority, createdAt time.Time) time.Time {
	return createdAt.Add(ResponseAllowance(priority))
}
