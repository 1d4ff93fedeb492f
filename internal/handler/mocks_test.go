package handler

import (
	"context"

	"postpulse/internal/domain"
	"postpulse/internal/service"

	"github.com/stretchr/testify/mock"
)

type mockViews struct{ mock.Mock }

func (m *mockViews) RecordView(ctx context.Context, req service.ViewRequest) (service.ViewResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(service.ViewResult), args.Error(1)
}

type mockEngagement struct{ mock.Mock }

func (m *mockEngagement) RecordEngagement(ctx context.Context, req service.EngagementRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockStats struct{ mock.Mock }

func (m *mockStats) GetStats(ctx context.Context, post domain.PostRef, viewerID *string) (*domain.ViewerStats, error) {
	args := m.Called(ctx, post, viewerID)
	stats, _ := args.Get(0).(*domain.ViewerStats)
	return stats, args.Error(1)
}

type mockLikes struct{ mock.Mock }

func (m *mockLikes) ToggleLike(ctx context.Context, post domain.PostRef, viewerID string) (*domain.LikeResult, error) {
	args := m.Called(ctx, post, viewerID)
	result, _ := args.Get(0).(*domain.LikeResult)
	return result, args.Error(1)
}

type mockTrending struct{ mock.Mock }

func (m *mockTrending) GetTrending(ctx context.Context, scope domain.TrendingScope, limit int) ([]domain.TrendingPost, error) {
	args := m.Called(ctx, scope, limit)
	posts, _ := args.Get(0).([]domain.TrendingPost)
	return posts, args.Error(1)
}
