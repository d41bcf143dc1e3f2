package engine

import (
	"math"
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// SLABucket is the compliance classification derived at read time. It is
// never persisted because "now" is not a property of the issue.
type SLABucket string

const (
	BucketMet          SLABucket = "met"
	BucketResolvedLate SLABucket = "overdue-but-closed"
	BucketOnTrack      SLABucket = "on-track"
	BucketAtRisk       SLABucket = "at-risk"
	BucketOverdue      SLABucket = "overdue"
)

// atRiskThresholdHours is a fixed policy constant, deliberately not tied to
// priority: an urgent issue with a 4h allowance is at-risk for its whole life.
const atRiskThresholdHours = 8

// SLAClassification is the result of evaluating an issue against its
// deadline. RemainingHours is zero for overdue and terminal issues.
type SLAClassification struct {
	Bucket         SLABucket
	RemainingHours int
}

// Evaluate classifies an issue against its SLA deadline at the given instant.
func Evaluate(issue domain.Issue, now time.Time) SLAClassification {
	if issue.Status.IsTerminal() {
		if !issue.UpdatedAt.After(issue.SLADeadline) {
			return SLAClassification{Bucket: BucketMet}
		}
		return SLAClassification{Bucket: BucketResolvedLate}
	}

	hoursLeft := ceilHours(issue.SLADeadline.Sub(now))
	switch {
	case hoursLeft <= 0:
		return SLAClassification{Bucket: BucketOverdue}
	case hoursLeft <= atRiskThresholdHours:
		return SLAClassification{Bucket: BucketAtRisk, RemainingHours: hoursLeft}
	default:
		return SLAClassification{Bucket: BucketOnTrack, RemainingHours: hoursLeft}
	}
}

// ceilHours rounds toward the soonest integer hour, so a negative-but-near-
// zero remainder reports 0 rather than -1.
func ceilHours(d time.Duration) int {
	return int(math.Ceil(d.Hours()))
}
