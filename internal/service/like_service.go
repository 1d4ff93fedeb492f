package service

import (
	"context"
	"errors"
	"fmt"

	"postpulse/internal/domain"
)

// maxToggleAttempts bounds retries when a concurrent toggle wins the race
const maxToggleAttempts = 3

var errToggleRace = errors.New("like toggle lost a race")

// LikeService flips the like relation for (post, viewer)
type LikeService struct {
	Deps
	cache statsCache
}

// NewLikeService creates a like toggler
func NewLikeService(deps Deps) *LikeService {
	return &LikeService{Deps: deps, cache: statsCache{Deps: deps}}
}

// ToggleLike removes the like if present and creates it otherwise. A unique
// violation from a concurrent insert is retried as another toggle.
func (s *LikeService) ToggleLike(ctx context.Context, ref domain.PostRef, viewerID string) (*domain.LikeResult, error) {
	if viewerID == "" {
		return nil, domain.ErrViewerRequired
	}

	post, err := s.resolvePost(ctx, ref)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		result, err := s.toggleOnce(ctx, post, viewerID)
		if errors.Is(err, errToggleRace) && attempt < maxToggleAttempts {
			s.Logger.WithFields(map[string]interface{}{
				"post":    post.String(),
				"attempt": attempt,
			}).Debug("Concurrent like toggle, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		s.Metrics.LikeToggle(string(post.Type), result.Liked)
		return result, nil
	}
}

func (s *LikeService) toggleOnce(ctx context.Context, post domain.PostRef, viewerID string) (*domain.LikeResult, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	exists, err := s.Repos.Likes.Exists(storeCtx, post, viewerID)
	if err != nil {
		return nil, fmt.Errorf("check like: %w", err)
	}

	var delta int64
	if exists {
		removed, err := s.Repos.Likes.Delete(storeCtx, post, viewerID)
		if err != nil {
			return nil, fmt.Errorf("delete like: %w", err)
		}
		if !removed {
			return nil, errToggleRace
		}
		delta = -1
	} else {
		err := s.Repos.Likes.Create(storeCtx, post, viewerID)
		if errors.Is(err, domain.ErrDuplicateLike) {
			return nil, errToggleRace
		}
		if err != nil {
			return nil, fmt.Errorf("create like: %w", err)
		}
		delta = 1
	}

	count, err := s.likeCount(storeCtx, post, delta)
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(ctx, post)

	return &domain.LikeResult{Liked: !exists, LikeCount: count}, nil
}

// likeCount applies the toggle to the post's counter. Community posts keep a
// denormalized counter; editorial counts are recounted from the relation.
func (s *LikeService) likeCount(ctx context.Context, post domain.PostRef, delta int64) (int64, error) {
	switch post.Type {
	case domain.PostTypeCommunity:
		count, err := s.Repos.Community.AdjustLikeCount(ctx, post.ID, delta)
		if err != nil {
			return 0, fmt.Errorf("adjust like count: %w", err)
		}
		return count, nil

	case domain.PostTypeEditorial:
		count, err := s.Repos.Likes.Count(ctx, post)
		if err != nil {
			return 0, fmt.Errorf("count likes: %w", err)
		}
		if err := s.Repos.Editorial.SetLikeCount(ctx, post.ID, count); err != nil {
			return 0, err
		}
		return count, nil
	}

	return 0, domain.ErrInvalidPostType
}
