package repository

import (
	"context"
	"time"

	"postpulse/internal/domain"
)

// PostRepository resolves the canonical ID of a post
type PostRepository interface {
	// ResolvePost accepts an ID or slug and returns domain.ErrPostNotFound
	// when neither matches.
	ResolvePost(ctx context.Context, postType domain.PostType, idOrSlug string) (string, error)
}

// EditorialRepository stores view events and the materialized stats aggregate
// for editorial posts
type EditorialRepository interface {
	// InsertViewEvent appends one immutable view event
	InsertViewEvent(ctx context.Context, event *domain.ViewEvent) error

	// RecomputeStats rebuilds the aggregate for a post from view events and
	// likes, upserts it and returns the result. Safe to repeat.
	RecomputeStats(ctx context.Context, postID string) (*domain.PostStats, error)

	// GetStats returns the stored aggregate, or nil when none exists yet
	GetStats(ctx context.Context, postID string) (*domain.PostStats, error)

	// SetLikeCount writes a freshly counted like total into the aggregate
	SetLikeCount(ctx context.Context, postID string, count int64) error

	// Trending returns posts last viewed at or after since, most viewed first
	Trending(ctx context.Context, since time.Time, limit int) ([]domain.TrendingPost, error)
}

// CommunityRepository updates the denormalized counters on community posts
type CommunityRepository interface {
	// RecordView atomically increments the view counters and sets last_viewed_at
	RecordView(ctx context.Context, postID string, identified bool, at time.Time) error

	// AdjustLikeCount atomically adds delta to like_count (never below zero)
	// and returns the new value
	AdjustLikeCount(ctx context.Context, postID string, delta int64) (int64, error)

	// GetStats reads the counters straight from the post row
	GetStats(ctx context.Context, postID string) (*domain.PostStats, error)

	// Trending returns posts last viewed at or after since, most viewed first
	Trending(ctx context.Context, since time.Time, limit int) ([]domain.TrendingPost, error)

	// ReconcileLikeCounts resets every like_count to the number of like rows
	ReconcileLikeCounts(ctx context.Context) (int64, error)
}

// LikeRepository stores like relations, unique on (post, viewer)
type LikeRepository interface {
	Exists(ctx context.Context, post domain.PostRef, viewerID string) (bool, error)

	// Create returns domain.ErrDuplicateLike when the relation already exists
	Create(ctx context.Context, post domain.PostRef, viewerID string) error

	// Delete reports whether a relation was removed
	Delete(ctx context.Context, post domain.PostRef, viewerID string) (bool, error)

	Count(ctx context.Context, post domain.PostRef) (int64, error)
}

// EngagementRepository upserts per-session engagement samples
type EngagementRepository interface {
	// Upsert merges sample into the row keyed by (session, post) using
	// domain.EngagementSample.Merge semantics and returns the stored row
	Upsert(ctx context.Context, sample *domain.EngagementSample) (*domain.EngagementSample, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Posts      PostRepository
	Editorial  EditorialRepository
	Community  CommunityRepository
	Likes      LikeRepository
	Engagement EngagementRepository

	// Health pings the backing store
	Health func(ctx context.Context) error
}
