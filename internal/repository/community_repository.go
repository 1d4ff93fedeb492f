package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"postpulse/internal/domain"
	"postpulse/pkg/database"

	"github.com/jackc/pgx/v5"
)

// communityRepository maintains the denormalized counters on community_posts.
// Every write is a single UPDATE with column arithmetic so concurrent writers
// never lose increments.
type communityRepository struct {
	db *database.PostgresDB
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(db *database.PostgresDB) CommunityRepository {
	return &communityRepository{db: db}
}

// RecordView increments view counters and stamps last_viewed_at
func (r *communityRepository) RecordView(ctx context.Context, postID string, identified bool, at time.Time) error {
	var identifiedDelta, anonymousDelta int64 = 0, 1
	if identified {
		identifiedDelta, anonymousDelta = 1, 0
	}

	query := `
		UPDATE community_posts SET
			view_count = view_count + 1,
			identified_view_count = identified_view_count + $2,
			anonymous_view_count = anonymous_view_count + $3,
			last_viewed_at = GREATEST(COALESCE(last_viewed_at, $4), $4)
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, postID, identifiedDelta, anonymousDelta, at)
	if err != nil {
		return fmt.Errorf("failed to record community view: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}

	return nil
}

// AdjustLikeCount applies delta to like_count and returns the new value
func (r *communityRepository) AdjustLikeCount(ctx context.Context, postID string, delta int64) (int64, error) {
	query := `
		UPDATE community_posts
		SET like_count = GREATEST(like_count + $2, 0)
		WHERE id = $1
		RETURNING like_count
	`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, postID, delta).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust community like count: %w", err)
	}

	return count, nil
}

// GetStats reads counters from the post row
func (r *communityRepository) GetStats(ctx context.Context, postID string) (*domain.PostStats, error) {
	query := `
		SELECT view_count, identified_view_count, anonymous_view_count, like_count, last_viewed_at
		FROM community_posts
		WHERE id = $1
	`

	stats := &domain.PostStats{}
	err := r.db.GetReadPool().QueryRow(ctx, query, postID).Scan(
		&stats.TotalViews,
		&stats.IdentifiedViews,
		&stats.AnonymousViews,
		&stats.TotalLikes,
		&stats.LastViewedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get community stats: %w", err)
	}

	// Admission already limits a session to one counted view per cooldown and
	// community posts keep no per-session rows, so every view counts as unique.
	stats.UniqueSessionViews = stats.TotalViews

	return stats, nil
}

// Trending returns community posts viewed within the window
func (r *communityRepository) Trending(ctx context.Context, since time.Time, limit int) ([]domain.TrendingPost, error) {
	query := `
		SELECT id, slug, title, view_count, like_count, last_viewed_at
		FROM community_posts
		WHERE last_viewed_at >= $1
		ORDER BY view_count DESC, like_count DESC, id
		LIMIT $2
	`

	rows, err := r.db.GetReadPool().Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query community trending: %w", err)
	}

	return scanTrending(rows, domain.PostTypeCommunity)
}

// ReconcileLikeCounts repairs like_count drift left by a failed counter
// update after a like row was written or removed
func (r *communityRepository) ReconcileLikeCounts(ctx context.Context) (int64, error) {
	query := `
		UPDATE community_posts p
		SET like_count = c.likes
		FROM (
			SELECT cp.id, COUNT(l.viewer_id) AS likes
			FROM community_posts cp
			LEFT JOIN post_likes l ON l.post_type = 'community' AND l.post_id = cp.id
			GROUP BY cp.id
		) c
		WHERE p.id = c.id AND p.like_count <> c.likes
	`

	result, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile community like counts: %w", err)
	}

	return result.RowsAffected(), nil
}
