package repository

import (
	"context"
	"errors"
	"fmt"

	"postpulse/internal/domain"
	"postpulse/pkg/database"

	"github.com/jackc/pgx/v5"
)

type postRepository struct {
	db *database.PostgresDB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *database.PostgresDB) PostRepository {
	return &postRepository{db: db}
}

// ResolvePost looks the post up by ID first, then by slug
func (r *postRepository) ResolvePost(ctx context.Context, postType domain.PostType, idOrSlug string) (string, error) {
	var query string
	switch postType {
	case domain.PostTypeEditorial:
		query = `SELECT id FROM editorial_posts WHERE id = $1 OR slug = $1 ORDER BY (id = $1) DESC LIMIT 1`
	case domain.PostTypeCommunity:
		query = `SELECT id FROM community_posts WHERE id = $1 OR slug = $1 ORDER BY (id = $1) DESC LIMIT 1`
	default:
		return "", domain.ErrInvalidPostType
	}

	var id string
	err := r.db.GetReadPool().QueryRow(ctx, query, idOrSlug).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrPostNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s post: %w", postType, err)
	}

	return id, nil
}
