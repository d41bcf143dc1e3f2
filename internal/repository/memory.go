package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/pkg/util"
)

// memoryIssueRepository is the arena-by-id collection used when no database
// is configured and by tests. Records go in and out as deep copies, so the
// engine's returned values never alias stored state.
type memoryIssueRepository struct {
	mu     sync.RWMutex
	issues map[string]domain.Issue
}

// NewMemoryIssueRepository builds an empty in-memory issue collection.
func NewMemoryIssueRepository() IssueRepository {
	return &memoryIssueRepository{issues: make(map[string]domain.Issue)}
}

func (r *memoryIssueRepository) Create(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.issues[issue.ID]; exists {
		return util.NewDomainError(util.CodeInternal, "duplicate issue id", 500, map[string]any{"id": issue.ID})
	}
	r.issues[issue.ID] = issue.Clone()
	return nil
}

func (r *memoryIssueRepository) Update(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.issues[issue.ID]; !exists {
		return util.NewNotFound("issue", map[string]any{"id": issue.ID})
	}
	r.issues[issue.ID] = issue.Clone()
	return nil
}

func (r *memoryIssueRepository) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	issue, exists := r.issues[id]
	if !exists {
		return nil, util.NewNotFound("issue", map[string]any{"id": id})
	}
	copied := issue.Clone()
	return &copied, nil
}

func (r *memoryIssueRepository) ListWithFilter(_ context.Context, filter IssueFilter) ([]domain.Issue, error) {
	r.mu.RLock()
	matched := make([]domain.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		if matchesFilter(issue, filter) {
			copied := issue.Clone()
			copied.Timeline = nil
			matched = append(matched, copied)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.Issue{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *memoryIssueRepository) ListAll(_ context.Context) ([]domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		copied := issue.Clone()
		copied.Timeline = nil
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func matchesFilter(issue domain.Issue, filter IssueFilter) bool {
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, issue.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, issue.Priority) {
		return false
	}
	if len(filter.Categories) > 0 && !containsString(filter.Categories, issue.Category) {
		return false
	}
	if filter.CreatedFrom != nil && issue.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && issue.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term != "" {
			haystack := strings.ToLower(issue.Title + " " + issue.Description + " " + issue.Location.Address)
			if !strings.Contains(haystack, term) {
				return false
			}
		}
	}
	return true
}

func containsStatus(set []domain.IssueStatus, status domain.IssueStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func containsPriority(set []domain.IssuePriority, priority domain.IssuePriority) bool {
	for _, p := range set {
		if p == priority {
			return true
		}
	}
	return false
}

func containsString(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
