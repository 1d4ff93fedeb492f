package service

import (
	"context"

	"postpulse/internal/domain"
)

// ViewRecorder counts legitimate views
type ViewRecorder interface {
	// RecordView reports Recorded=false with a reason for bot, duplicate and
	// rate-limited attempts. Only store failures are returned as errors.
	RecordView(ctx context.Context, req ViewRequest) (ViewResult, error)
}

// LikeToggler flips a viewer's like on a post
type LikeToggler interface {
	ToggleLike(ctx context.Context, post domain.PostRef, viewerID string) (*domain.LikeResult, error)
}

// EngagementRecorder aggregates scroll depth, time on page and interactions
type EngagementRecorder interface {
	// RecordEngagement returns domain.ErrEngagementUnsupported for community
	// posts. The write itself happens in the background.
	RecordEngagement(ctx context.Context, req EngagementRequest) error
}

// StatsReader serves per-post stats
type StatsReader interface {
	GetStats(ctx context.Context, post domain.PostRef, viewerID *string) (*domain.ViewerStats, error)
}

// TrendingRanker ranks recently viewed posts
type TrendingRanker interface {
	GetTrending(ctx context.Context, scope domain.TrendingScope, limit int) ([]domain.TrendingPost, error)
}

// Services aggregates all service interfaces
type Services struct {
	Views      ViewRecorder
	Likes      LikeToggler
	Engagement EngagementRecorder
	Stats      StatsReader
	Trending   TrendingRanker
	Background *Background
}

// NewServices builds every tracking service over the same dependencies
func NewServices(deps Deps) *Services {
	return &Services{
		Views:      NewViewService(deps),
		Likes:      NewLikeService(deps),
		Engagement: NewEngagementService(deps),
		Stats:      NewStatsService(deps),
		Trending:   NewTrendingService(deps),
		Background: deps.Background,
	}
}

// ViewerAuthenticator resolves the viewer behind a bearer token
type ViewerAuthenticator interface {
	ValidateViewerToken(ctx context.Context, token string) (*domain.Viewer, error)
}
