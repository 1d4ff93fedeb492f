package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"postpulse/internal/repository"
	"postpulse/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

const usage = "Usage: go run ./cmd/migrate [up|drop|seed|reconcile]"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := execAll(ctx, conn, dropQueries, "Dropped"); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := execAll(ctx, conn, createQueries, "Applied"); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	case "reconcile":
		updated, err := reconcileLikeCounts(ctx, dbURL)
		if err != nil {
			log.Fatalf("Failed to reconcile like counts: %v", err)
		}
		fmt.Printf("✅ Reconciled like counts on %d community posts\n", updated)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

var dropQueries = []string{
	`DROP TABLE IF EXISTS engagement_samples CASCADE`,
	`DROP TABLE IF EXISTS editorial_post_stats CASCADE`,
	`DROP TABLE IF EXISTS post_likes CASCADE`,
	`DROP TABLE IF EXISTS post_view_events CASCADE`,
	`DROP TABLE IF EXISTS community_posts CASCADE`,
	`DROP TABLE IF EXISTS editorial_posts CASCADE`,
}

var createQueries = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

	`CREATE TABLE IF NOT EXISTS editorial_posts (
		id TEXT PRIMARY KEY,
		slug TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		published_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Community posts carry their own counters instead of an aggregate table
	`CREATE TABLE IF NOT EXISTS community_posts (
		id TEXT PRIMARY KEY,
		slug TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		author_id TEXT,
		view_count BIGINT NOT NULL DEFAULT 0,
		identified_view_count BIGINT NOT NULL DEFAULT 0,
		anonymous_view_count BIGINT NOT NULL DEFAULT 0,
		like_count BIGINT NOT NULL DEFAULT 0 CHECK (like_count >= 0),
		last_viewed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS post_view_events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		post_id TEXT NOT NULL REFERENCES editorial_posts(id) ON DELETE CASCADE,
		viewer_id TEXT,
		session_id TEXT NOT NULL,
		ip_address TEXT,
		user_agent TEXT,
		referrer TEXT,
		is_bot BOOLEAN NOT NULL DEFAULT false,
		duration_seconds INTEGER CHECK (duration_seconds >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS post_likes (
		post_type TEXT NOT NULL CHECK (post_type IN ('editorial', 'community')),
		post_id TEXT NOT NULL,
		viewer_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (post_type, post_id, viewer_id)
	)`,

	`CREATE TABLE IF NOT EXISTS editorial_post_stats (
		post_id TEXT PRIMARY KEY REFERENCES editorial_posts(id) ON DELETE CASCADE,
		total_views BIGINT NOT NULL DEFAULT 0,
		unique_session_views BIGINT NOT NULL DEFAULT 0,
		identified_views BIGINT NOT NULL DEFAULT 0,
		anonymous_views BIGINT NOT NULL DEFAULT 0,
		total_likes BIGINT NOT NULL DEFAULT 0,
		avg_view_duration DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_viewed_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS engagement_samples (
		session_id TEXT NOT NULL,
		post_id TEXT NOT NULL REFERENCES editorial_posts(id) ON DELETE CASCADE,
		viewer_id TEXT,
		scroll_depth INTEGER NOT NULL DEFAULT 0 CHECK (scroll_depth BETWEEN 0 AND 100),
		time_on_page INTEGER NOT NULL DEFAULT 0,
		clicks INTEGER NOT NULL DEFAULT 0,
		shares INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (session_id, post_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_post_view_events_post_created ON post_view_events(post_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_post_likes_post ON post_likes(post_type, post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_editorial_post_stats_trending ON editorial_post_stats(last_viewed_at DESC, total_views DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_community_posts_trending ON community_posts(last_viewed_at DESC, view_count DESC)`,
}

func execAll(ctx context.Context, conn *pgx.Conn, queries []string, verb string) error {
	for i, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %d: %w", i+1, err)
		}
		fmt.Printf("  %s %d/%d\n", verb, i+1, len(queries))
	}
	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	editorial := []struct{ id, slug, title string }{
		{"welcome-sunday", "welcome-sunday", "Welcome Sunday"},
		{"advent-reflections", "advent-reflections", "Advent Reflections"},
		{"volunteer-week", "volunteer-week", "Volunteer Week Recap"},
	}
	community := []struct{ id, slug, title string }{
		{"my-testimony", "my-testimony", "My Testimony"},
		{"choir-practice-notes", "choir-practice-notes", "Choir Practice Notes"},
	}

	batch := &pgx.Batch{}
	for _, p := range editorial {
		batch.Queue(`INSERT INTO editorial_posts (id, slug, title, published_at) VALUES ($1, $2, $3, NOW())
			ON CONFLICT (id) DO NOTHING`, p.id, p.slug, p.title)
	}
	for _, p := range community {
		batch.Queue(`INSERT INTO community_posts (id, slug, title) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO NOTHING`, p.id, p.slug, p.title)
	}

	results := conn.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to seed post %d: %w", i+1, err)
		}
	}

	fmt.Printf("  Seeded %d editorial and %d community posts\n", len(editorial), len(community))
	return nil
}

// reconcileLikeCounts runs the repository repair of community like_count
// drift left by a failed counter update after a like row changed
func reconcileLikeCounts(ctx context.Context, dbURL string) (int64, error) {
	db, err := database.NewPostgresDB(ctx, dbURL, "")
	if err != nil {
		return 0, err
	}
	defer db.Close()

	return repository.NewCommunityRepository(db).ReconcileLikeCounts(ctx)
}
