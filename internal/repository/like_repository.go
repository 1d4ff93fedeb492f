package repository

import (
	"context"
	"fmt"

	"postpulse/internal/domain"
	"postpulse/pkg/database"
)

type likeRepository struct {
	db *database.PostgresDB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *database.PostgresDB) LikeRepository {
	return &likeRepository{db: db}
}

// Exists checks the primary pool so a toggle never reads a stale replica
func (r *likeRepository) Exists(ctx context.Context, post domain.PostRef, viewerID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_type = $1 AND post_id = $2 AND viewer_id = $3)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, string(post.Type), post.ID, viewerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return exists, nil
}

// Create inserts the relation. The primary key on (post_type, post_id,
// viewer_id) turns a concurrent duplicate into domain.ErrDuplicateLike.
func (r *likeRepository) Create(ctx context.Context, post domain.PostRef, viewerID string) error {
	query := `INSERT INTO post_likes (post_type, post_id, viewer_id, created_at) VALUES ($1, $2, $3, NOW())`

	if _, err := r.db.Pool.Exec(ctx, query, string(post.Type), post.ID, viewerID); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateLike
		}
		return fmt.Errorf("failed to create like: %w", err)
	}
	return nil
}

// Delete removes the relation and reports whether a row existed
func (r *likeRepository) Delete(ctx context.Context, post domain.PostRef, viewerID string) (bool, error) {
	query := `DELETE FROM post_likes WHERE post_type = $1 AND post_id = $2 AND viewer_id = $3`

	result, err := r.db.Pool.Exec(ctx, query, string(post.Type), post.ID, viewerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Count returns the number of viewers currently liking the post
func (r *likeRepository) Count(ctx context.Context, post domain.PostRef) (int64, error) {
	query := `SELECT COUNT(*) FROM post_likes WHERE post_type = $1 AND post_id = $2`

	var count int64
	if err := r.db.Pool.QueryRow(ctx, query, string(post.Type), post.ID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}
