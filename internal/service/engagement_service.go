package service

import (
	"context"
	"fmt"
	"time"

	"postpulse/internal/domain"
)

const taskEngagementUpsert = "engagement_upsert"

// EngagementRequest is one throttled report from the reading client.
// TimeOnPageSeconds is cumulative; Clicks and Shares are deltas since the
// previous report.
type EngagementRequest struct {
	Post              domain.PostRef
	SessionID         string
	ViewerID          *string
	ScrollDepth       int
	TimeOnPageSeconds int
	Clicks            int
	Shares            int
}

// EngagementService aggregates per-session engagement for editorial posts
type EngagementService struct {
	Deps
}

// NewEngagementService creates an engagement aggregator
func NewEngagementService(deps Deps) *EngagementService {
	return &EngagementService{Deps: deps}
}

// RecordEngagement validates the report and hands the upsert to the
// background runner. Store failures are logged, never returned.
func (s *EngagementService) RecordEngagement(ctx context.Context, req EngagementRequest) error {
	if req.Post.Type != domain.PostTypeEditorial {
		return domain.ErrEngagementUnsupported
	}
	if req.SessionID == "" {
		return fmt.Errorf("engagement report without session id")
	}

	sample := &domain.EngagementSample{
		SessionID:         req.SessionID,
		ViewerID:          req.ViewerID,
		ScrollDepth:       domain.ClampScrollDepth(req.ScrollDepth),
		TimeOnPageSeconds: nonNegative(req.TimeOnPageSeconds),
		Clicks:            nonNegative(req.Clicks),
		Shares:            nonNegative(req.Shares),
		UpdatedAt:         time.Now(),
	}
	ref := req.Post

	s.Background.Go(taskEngagementUpsert, func(ctx context.Context) error {
		post, err := s.resolvePost(ctx, ref)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", ref, err)
		}

		sample.PostID = post.ID
		if _, err := s.Repos.Engagement.Upsert(ctx, sample); err != nil {
			return fmt.Errorf("upsert engagement for %s: %w", post, err)
		}
		return nil
	})

	return nil
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
