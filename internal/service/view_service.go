package service

import (
	"context"
	"fmt"
	"time"

	"postpulse/internal/domain"
	"postpulse/internal/metrics"
)

// Rejection reasons reported by RecordView
const (
	ReasonBot         = "bot detected"
	ReasonDuplicate   = "duplicate"
	ReasonRateLimited = "rate limited"
)

// taskRecomputeStats is the background task refreshing editorial aggregates
const taskRecomputeStats = "recompute_stats"

// ViewRequest is one view attempt. Post.ID may be an ID or a slug.
type ViewRequest struct {
	Post            domain.PostRef
	Meta            domain.RequestMeta
	Referrer        *string
	DurationSeconds *int
}

// ViewResult reports whether the view was counted. Counts are never
// returned; callers read stats separately.
type ViewResult struct {
	Recorded bool
	Reason   string
}

// ViewService records accepted views in the storage shape of each post type
type ViewService struct {
	Deps
	admitter *Admitter
	cache    statsCache
	now      func() time.Time
}

// NewViewService creates a view recorder
func NewViewService(deps Deps) *ViewService {
	return &ViewService{
		Deps:     deps,
		admitter: NewAdmitter(deps),
		cache:    statsCache{Deps: deps},
		now:      time.Now,
	}
}

// RecordView runs bot classification, admission and the durable write. Bot
// requests are rejected before any cache or store call.
func (s *ViewService) RecordView(ctx context.Context, req ViewRequest) (ViewResult, error) {
	postType := string(req.Post.Type)

	if IsBot(req.Meta.UserAgent) {
		s.Metrics.ViewAttempt(postType, metrics.OutcomeBot)
		s.Logger.WithField("post", req.Post.String()).Debug("View rejected, bot user-agent")
		return ViewResult{Reason: ReasonBot}, nil
	}

	post, err := s.resolvePost(ctx, req.Post)
	if err != nil {
		s.Metrics.ViewAttempt(postType, metrics.OutcomePostNotFound)
		return ViewResult{}, fmt.Errorf("resolve post: %w", err)
	}

	switch s.admitter.AdmitView(ctx, post, req.Meta.SessionID, req.Meta.IPAddress) {
	case RejectedDuplicate:
		s.Metrics.ViewAttempt(postType, metrics.OutcomeDuplicate)
		s.Logger.WithField("post", post.String()).Debug("View rejected, within cooldown")
		return ViewResult{Reason: ReasonDuplicate}, nil
	case RejectedRateLimited:
		s.Metrics.ViewAttempt(postType, metrics.OutcomeRateLimited)
		s.Logger.WithField("post", post.String()).Debug("View rejected, rate limited")
		return ViewResult{Reason: ReasonRateLimited}, nil
	}

	if err := s.write(ctx, post, req); err != nil {
		s.Metrics.ViewAttempt(postType, metrics.OutcomeStoreError)
		return ViewResult{}, err
	}

	s.Metrics.ViewAttempt(postType, metrics.OutcomeRecorded)
	return ViewResult{Recorded: true}, nil
}

func (s *ViewService) write(ctx context.Context, post domain.PostRef, req ViewRequest) error {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	now := s.now()

	switch post.Type {
	case domain.PostTypeEditorial:
		event := &domain.ViewEvent{
			Post:            post,
			ViewerID:        req.Meta.ViewerID(),
			SessionID:       req.Meta.SessionID,
			IPAddress:       req.Meta.IPAddress,
			UserAgent:       req.Meta.UserAgent,
			Referrer:        req.Referrer,
			DurationSeconds: req.DurationSeconds,
			CreatedAt:       now,
		}
		if err := s.Repos.Editorial.InsertViewEvent(storeCtx, event); err != nil {
			return fmt.Errorf("insert view event: %w", err)
		}

		s.Background.Go(taskRecomputeStats, func(ctx context.Context) error {
			if _, err := s.Repos.Editorial.RecomputeStats(ctx, post.ID); err != nil {
				return fmt.Errorf("recompute %s: %w", post, err)
			}
			s.cache.invalidate(ctx, post)
			return nil
		})

	case domain.PostTypeCommunity:
		identified := req.Meta.ViewerID() != nil
		if err := s.Repos.Community.RecordView(storeCtx, post.ID, identified, now); err != nil {
			return fmt.Errorf("record community view: %w", err)
		}
		s.cache.invalidate(ctx, post)

	default:
		return domain.ErrInvalidPostType
	}

	return nil
}
