package repository

import (
	"context"
	"fmt"

	"postpulse/internal/domain"
	"postpulse/pkg/database"
)

type engagementRepository struct {
	db *database.PostgresDB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *database.PostgresDB) EngagementRepository {
	return &engagementRepository{db: db}
}

// Upsert applies the merge rule in one statement on the (session_id, post_id)
// unique key
func (r *engagementRepository) Upsert(ctx context.Context, sample *domain.EngagementSample) (*domain.EngagementSample, error) {
	query := `
		INSERT INTO engagement_samples (
			session_id, post_id, viewer_id, scroll_depth, time_on_page, clicks, shares, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id, post_id) DO UPDATE SET
			scroll_depth = GREATEST(engagement_samples.scroll_depth, EXCLUDED.scroll_depth),
			time_on_page = EXCLUDED.time_on_page,
			clicks = engagement_samples.clicks + EXCLUDED.clicks,
			shares = engagement_samples.shares + EXCLUDED.shares,
			viewer_id = COALESCE(EXCLUDED.viewer_id, engagement_samples.viewer_id),
			updated_at = EXCLUDED.updated_at
		RETURNING session_id, post_id, viewer_id, scroll_depth, time_on_page, clicks, shares, updated_at
	`

	stored := &domain.EngagementSample{}
	err := r.db.Pool.QueryRow(ctx, query,
		sample.SessionID,
		sample.PostID,
		sample.ViewerID,
		sample.ScrollDepth,
		sample.TimeOnPageSeconds,
		sample.Clicks,
		sample.Shares,
		sample.UpdatedAt,
	).Scan(
		&stored.SessionID,
		&stored.PostID,
		&stored.ViewerID,
		&stored.ScrollDepth,
		&stored.TimeOnPageSeconds,
		&stored.Clicks,
		&stored.Shares,
		&stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert engagement sample: %w", err)
	}

	return stored, nil
}
