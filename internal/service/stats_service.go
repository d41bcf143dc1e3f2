package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/engine"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
	"github.com/spec-kit/civic-issue-service/internal/repository"
)

const publicStatsCacheKey = "civic:stats:public"

// IssueSLA pairs an issue with its live compliance classification for the
// dashboard's SLA monitor.
type IssueSLA struct {
	Issue          domain.Issue
	Classification engine.SLAClassification
}

// StatsService computes fleet-wide statistics. The public stats payload is
// cached in redis with a short TTL because it backs an unauthenticated page;
// a cold or unreachable cache just means recomputing.
type StatsService struct {
	issues   repository.IssueRepository
	cache    *persistence.Redis
	logger   *zap.Logger
	clock    engine.Clock
	cacheTTL time.Duration
}

// NewStatsService constructs the service. A nil cache or non-positive TTL
// disables caching.
func NewStatsService(issues repository.IssueRepository, cache *persistence.Redis, logger *zap.Logger, clock engine.Clock, cacheTTL time.Duration) *StatsService {
	if clock == nil {
		clock = engine.SystemClock()
	}
	return &StatsService{
		issues:   issues,
		cache:    cache,
		logger:   logger,
		clock:    clock,
		cacheTTL: cacheTTL,
	}
}

// PublicStats returns the community-facing statistics, served from cache when
// fresh.
func (s *StatsService) PublicStats(ctx context.Context) (engine.Stats, error) {
	if cached, ok := s.readCache(ctx); ok {
		return cached, nil
	}
	stats, err := s.aggregate(ctx, 0)
	if err != nil {
		return engine.Stats{}, err
	}
	s.writeCache(ctx, stats)
	return stats, nil
}

// DashboardStats recomputes statistics on every call; staff dashboards want
// live numbers.
func (s *StatsService) DashboardStats(ctx context.Context, window time.Duration) (engine.Stats, error) {
	return s.aggregate(ctx, window)
}

// SLAReport evaluates every non-closed issue against its deadline at the
// current instant.
func (s *StatsService) SLAReport(ctx context.Context) ([]IssueSLA, error) {
	issues, err := s.issues.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	report := make([]IssueSLA, 0, len(issues))
	for _, issue := range issues {
		if issue.Status == domain.IssueStatusClosed {
			continue
		}
		report = append(report, IssueSLA{
			Issue:          issue,
			Classification: engine.Evaluate(issue, now),
		})
	}
	return report, nil
}

// InvalidateCache drops the cached public stats after a mutation.
func (s *StatsService) InvalidateCache(ctx context.Context) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	if err := s.cache.Client.Del(ctx, publicStatsCacheKey).Err(); err != nil {
		s.logger.Debug("stats cache invalidation failed", zap.Error(err))
	}
}

func (s *StatsService) aggregate(ctx context.Context, window time.Duration) (engine.Stats, error) {
	issues, err := s.issues.ListAll(ctx)
	if err != nil {
		return engine.Stats{}, err
	}
	return engine.Aggregate(issues, s.clock.Now(), window), nil
}

func (s *StatsService) readCache(ctx context.Context) (engine.Stats, bool) {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return engine.Stats{}, false
	}
	raw, err := s.cache.Client.Get(ctx, publicStatsCacheKey).Bytes()
	if err != nil {
		return engine.Stats{}, false
	}
	var stats engine.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Debug("stats cache decode failed", zap.Error(err))
		return engine.Stats{}, false
	}
	return stats, true
}

func (s *StatsService) writeCache(ctx context.Context, stats engine.Stats) {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, publicStatsCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
}
