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

// editorialRepository handles view events and the stats aggregate for editorial posts
type editorialRepository struct {
	db *database.PostgresDB
}

// NewEditorialRepository creates a new editorial repository
func NewEditorialRepository(db *database.PostgresDB) EditorialRepository {
	return &editorialRepository{db: db}
}

// InsertViewEvent appends one immutable view event
func (r *editorialRepository) InsertViewEvent(ctx context.Context, event *domain.ViewEvent) error {
	query := `
		INSERT INTO post_view_events (
			post_id, viewer_id, session_id, ip_address, user_agent,
			referrer, is_bot, duration_seconds, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		event.Post.ID,
		event.ViewerID,
		event.SessionID,
		event.IPAddress,
		event.UserAgent,
		event.Referrer,
		event.IsBot,
		event.DurationSeconds,
		event.CreatedAt,
	).Scan(&event.ID)

	if err != nil {
		return fmt.Errorf("failed to insert view event: %w", err)
	}

	return nil
}

// RecomputeStats rebuilds the aggregate from scratch. Counting the full event
// table makes the operation idempotent and repairs any missed update.
func (r *editorialRepository) RecomputeStats(ctx context.Context, postID string) (*domain.PostStats, error) {
	query := `
		INSERT INTO editorial_post_stats (
			post_id, total_views, unique_session_views, identified_views,
			anonymous_views, total_likes, avg_view_duration, last_viewed_at, updated_at
		)
		SELECT
			$1::text,
			COUNT(e.id),
			COUNT(DISTINCT e.session_id),
			COUNT(e.viewer_id),
			COUNT(e.id) - COUNT(e.viewer_id),
			(SELECT COUNT(*) FROM post_likes l WHERE l.post_type = 'editorial' AND l.post_id = $1),
			COALESCE(AVG(e.duration_seconds), 0)::float8,
			MAX(e.created_at),
			NOW()
		FROM post_view_events e
		WHERE e.post_id = $1
		ON CONFLICT (post_id) DO UPDATE SET
			total_views = EXCLUDED.total_views,
			unique_session_views = EXCLUDED.unique_session_views,
			identified_views = EXCLUDED.identified_views,
			anonymous_views = EXCLUDED.anonymous_views,
			total_likes = EXCLUDED.total_likes,
			avg_view_duration = EXCLUDED.avg_view_duration,
			last_viewed_at = EXCLUDED.last_viewed_at,
			updated_at = EXCLUDED.updated_at
		RETURNING total_views, unique_session_views, identified_views,
			anonymous_views, total_likes, avg_view_duration, last_viewed_at
	`

	stats, err := scanStats(r.db.Pool.QueryRow(ctx, query, postID))
	if err != nil {
		return nil, fmt.Errorf("failed to recompute editorial stats: %w", err)
	}

	return stats, nil
}

// GetStats returns the stored aggregate, or nil when the row does not exist
func (r *editorialRepository) GetStats(ctx context.Context, postID string) (*domain.PostStats, error) {
	query := `
		SELECT total_views, unique_session_views, identified_views,
			anonymous_views, total_likes, avg_view_duration, last_viewed_at
		FROM editorial_post_stats
		WHERE post_id = $1
	`

	stats, err := scanStats(r.db.GetReadPool().QueryRow(ctx, query, postID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get editorial stats: %w", err)
	}

	return stats, nil
}

// SetLikeCount updates the like total of an existing aggregate row. A missing
// row is left alone; it is built with the right count on first read.
func (r *editorialRepository) SetLikeCount(ctx context.Context, postID string, count int64) error {
	query := `UPDATE editorial_post_stats SET total_likes = $2, updated_at = NOW() WHERE post_id = $1`

	if _, err := r.db.Pool.Exec(ctx, query, postID, count); err != nil {
		return fmt.Errorf("failed to set editorial like count: %w", err)
	}
	return nil
}

// Trending returns editorial posts viewed within the window
func (r *editorialRepository) Trending(ctx context.Context, since time.Time, limit int) ([]domain.TrendingPost, error) {
	query := `
		SELECT p.id, p.slug, p.title, s.total_views, s.total_likes, s.last_viewed_at
		FROM editorial_post_stats s
		JOIN editorial_posts p ON p.id = s.post_id
		WHERE s.last_viewed_at >= $1
		ORDER BY s.total_views DESC, s.total_likes DESC, p.id
		LIMIT $2
	`

	rows, err := r.db.GetReadPool().Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query editorial trending: %w", err)
	}

	return scanTrending(rows, domain.PostTypeEditorial)
}

func scanStats(row pgx.Row) (*domain.PostStats, error) {
	stats := &domain.PostStats{}
	err := row.Scan(
		&stats.TotalViews,
		&stats.UniqueSessionViews,
		&stats.IdentifiedViews,
		&stats.AnonymousViews,
		&stats.TotalLikes,
		&stats.AvgViewDuration,
		&stats.LastViewedAt,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func scanTrending(rows pgx.Rows, postType domain.PostType) ([]domain.TrendingPost, error) {
	defer rows.Close()

	var posts []domain.TrendingPost
	for rows.Next() {
		post := domain.TrendingPost{PostType: postType}
		if err := rows.Scan(&post.PostID, &post.Slug, &post.Title, &post.ViewCount, &post.LikeCount, &post.LastViewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trending row: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading trending rows: %w", err)
	}

	return posts, nil
}
