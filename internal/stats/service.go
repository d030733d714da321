package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Service computes and caches the dashboard summary.
type Service struct {
	repo   Repository
	cache  *Cache
	group  singleflight.Group
	now    func() time.Time
	logger *slog.Logger
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, now: time.Now, logger: logger}
}

// SetClock overrides the clock used to pick the current month.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Summary returns the cached summary for the current month, computing it on a miss.
// Concurrent misses share one computation.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	month := s.now().UTC().Format("2006-01")
	ch := s.group.DoChan(month, func() (any, error) {
		return s.fetch(ctx, month)
	})
	select {
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Summary{}, res.Err
		}
		return res.Val.(Summary), nil
	}
}

// Warm invalidates the cache and recomputes the summary.
func (s *Service) Warm(ctx context.Context) (Summary, error) {
	if err := s.cache.Bump(ctx); err != nil {
		return Summary{}, fmt.Errorf("stats: bump cache: %w", err)
	}
	return s.Summary(ctx)
}

// Invalidate moves the cache to a new version so the next Summary recomputes.
// A cache failure is logged; the stale entry then expires with its TTL.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("stats cache invalidate failed", slog.Any("error", err))
	}
}

func (s *Service) fetch(ctx context.Context, month string) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, "summary", month)
	if err != nil {
		s.logger.Warn("stats cache unavailable", slog.Any("error", err))
		return s.compute(ctx)
	}
	var out Summary
	if err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.compute(ctx)
	}); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *Service) compute(ctx context.Context) (Summary, error) {
	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	sum, err := s.repo.Summary(ctx, start, start.AddDate(0, 1, 0))
	if err != nil {
		return Summary{}, fmt.Errorf("stats: summary: %w", err)
	}
	sum.Month = start.Format("2006-01")
	sum.GeneratedAt = now
	return sum, nil
}
