package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"postpulse/internal/domain"
	"postpulse/pkg/redis"

	"golang.org/x/sync/errgroup"
)

// DefaultTrendingLimit applies when the caller does not ask for a size
const DefaultTrendingLimit = 10

// TrendingService ranks recently viewed posts. Results are cached per scope
// at the maximum size and truncated per request.
type TrendingService struct {
	Deps
	now func() time.Time
}

// NewTrendingService creates a trending ranker
func NewTrendingService(deps Deps) *TrendingService {
	return &TrendingService{Deps: deps, now: time.Now}
}

// GetTrending returns at most limit posts last viewed within the trending
// window, by view count then like count
func (s *TrendingService) GetTrending(ctx context.Context, scope domain.TrendingScope, limit int) ([]domain.TrendingPost, error) {
	limit = s.clampLimit(limit)

	posts, ok := s.cached(ctx, scope)
	if !ok {
		var err error
		posts, err = s.rank(ctx, scope)
		if err != nil {
			return nil, err
		}
		s.store(ctx, scope, posts)
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}
	if posts == nil {
		posts = []domain.TrendingPost{}
	}
	return posts, nil
}

func (s *TrendingService) clampLimit(limit int) int {
	ceiling := s.Config.TrendingMaxLimit
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	if ceiling > 0 && limit > ceiling {
		limit = ceiling
	}
	return limit
}

func (s *TrendingService) rank(ctx context.Context, scope domain.TrendingScope) ([]domain.TrendingPost, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	since := s.now().Add(-s.Config.TrendingWindow)
	size := s.Config.TrendingMaxLimit

	var editorial, community []domain.TrendingPost
	g, gctx := errgroup.WithContext(ctx)

	if scope == domain.ScopeEditorial || scope == domain.ScopeBoth {
		g.Go(func() error {
			var err error
			editorial, err = s.Repos.Editorial.Trending(gctx, since, size)
			return err
		})
	}
	if scope == domain.ScopeCommunity || scope == domain.ScopeBoth {
		g.Go(func() error {
			var err error
			community, err = s.Repos.Community.Trending(gctx, since, size)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("query trending %s: %w", scope, err)
	}

	return mergeTrending(size, editorial, community), nil
}

// mergeTrending re-sorts the union of independently ranked lists
func mergeTrending(limit int, lists ...[]domain.TrendingPost) []domain.TrendingPost {
	var merged []domain.TrendingPost
	for _, list := range lists {
		merged = append(merged, list...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].ViewCount != merged[j].ViewCount {
			return merged[i].ViewCount > merged[j].ViewCount
		}
		return merged[i].LikeCount > merged[j].LikeCount
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func (s *TrendingService) cached(ctx context.Context, scope domain.TrendingScope) ([]domain.TrendingPost, bool) {
	if s.Cache == nil {
		return nil, false
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	key := s.Cache.KeyBuilder.KeyTrending(string(scope))
	raw, err := s.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.Logger.WithError(err).Warn("Trending cache error, querying store")
		}
		return nil, false
	}

	var posts []domain.TrendingPost
	if err := json.Unmarshal([]byte(raw), &posts); err != nil {
		s.Logger.WithError(err).Warn("Trending cache corrupted, dropping entry")
		_ = s.Cache.Delete(ctx, key)
		return nil, false
	}
	return posts, true
}

func (s *TrendingService) store(ctx context.Context, scope domain.TrendingScope, posts []domain.TrendingPost) {
	if s.Cache == nil {
		return
	}

	data, err := json.Marshal(posts)
	if err != nil {
		return
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	key := s.Cache.KeyBuilder.KeyTrending(string(scope))
	if err := s.Cache.Set(ctx, key, data, s.Config.TrendingCacheTTL); err != nil {
		s.Logger.WithError(err).Warn("Failed to cache trending posts")
	}
}
