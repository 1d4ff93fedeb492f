package service

import (
	"context"
	"fmt"

	"postpulse/internal/domain"

	"golang.org/x/sync/singleflight"
)

// StatsService serves post stats through a read-through cache shared by all
// viewers, merged with an uncached per-viewer like lookup.
type StatsService struct {
	Deps
	cache statsCache
	group singleflight.Group
}

// NewStatsService creates a stats reader
func NewStatsService(deps Deps) *StatsService {
	return &StatsService{Deps: deps, cache: statsCache{Deps: deps}}
}

// GetStats returns the post's shared stats plus HasLiked for viewerID. Store
// errors are returned so the caller can render a fallback.
func (s *StatsService) GetStats(ctx context.Context, ref domain.PostRef, viewerID *string) (*domain.ViewerStats, error) {
	post, err := s.resolvePost(ctx, ref)
	if err != nil {
		return nil, err
	}

	base, err := s.baseStats(ctx, post)
	if err != nil {
		return nil, err
	}

	result := &domain.ViewerStats{PostStats: *base}
	if viewerID == nil || *viewerID == "" {
		return result, nil
	}

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	liked, err := s.Repos.Likes.Exists(storeCtx, post, *viewerID)
	if err != nil {
		return nil, fmt.Errorf("check like state: %w", err)
	}
	result.HasLiked = liked

	return result, nil
}

func (s *StatsService) baseStats(ctx context.Context, post domain.PostRef) (*domain.PostStats, error) {
	stats, result := s.cache.get(ctx, post)
	s.Metrics.StatsCache(result)
	if stats != nil {
		return stats, nil
	}

	// Concurrent misses for one post share a single store read. The load is
	// detached from the first caller's cancellation so it cannot fail the
	// others.
	v, err, _ := s.group.Do(post.String(), func() (interface{}, error) {
		loadCtx, cancel := s.storeCtx(context.WithoutCancel(ctx))
		defer cancel()

		version, cacheable := s.cache.version(loadCtx, post)
		stats, err := s.load(loadCtx, post)
		if err != nil {
			return nil, err
		}
		if cacheable {
			s.cache.set(loadCtx, post, stats, version)
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}

	loaded := *v.(*domain.PostStats)
	return &loaded, nil
}

func (s *StatsService) load(ctx context.Context, post domain.PostRef) (*domain.PostStats, error) {
	switch post.Type {
	case domain.PostTypeEditorial:
		stats, err := s.Repos.Editorial.GetStats(ctx, post.ID)
		if err != nil {
			return nil, fmt.Errorf("read editorial stats: %w", err)
		}
		if stats != nil {
			return stats, nil
		}
		// first read of a post with no aggregate yet
		stats, err = s.Repos.Editorial.RecomputeStats(ctx, post.ID)
		if err != nil {
			return nil, fmt.Errorf("build editorial stats: %w", err)
		}
		return stats, nil

	case domain.PostTypeCommunity:
		stats, err := s.Repos.Community.GetStats(ctx, post.ID)
		if err != nil {
			return nil, fmt.Errorf("read community stats: %w", err)
		}
		return stats, nil
	}

	return nil, domain.ErrInvalidPostType
}
