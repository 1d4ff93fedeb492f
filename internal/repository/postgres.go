package repository

import (
	"errors"

	"postpulse/pkg/database"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint violation
const uniqueViolation = "23505"

// NewPostgresRepositories wires every repository to the same pool
func NewPostgresRepositories(db *database.PostgresDB) *Repositories {
	return &Repositories{
		Posts:      NewPostRepository(db),
		Editorial:  NewEditorialRepository(db),
		Community:  NewCommunityRepository(db),
		Likes:      NewLikeRepository(db),
		Engagement: NewEngagementRepository(db),
		Health:     db.Health,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
