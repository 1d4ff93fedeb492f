package service

import (
	"context"
	"time"

	"postpulse/internal/config"
	"postpulse/internal/domain"
	"postpulse/internal/metrics"
	"postpulse/internal/repository"
	"postpulse/pkg/logger"
	"postpulse/pkg/redis"
)

// Deps bundles the collaborators shared by every tracking service. Cache may
// be nil, in which case admission fails open and nothing is cached.
type Deps struct {
	Repos      *repository.Repositories
	Cache      *redis.Client
	Config     config.TrackingConfig
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
	Background *Background
}

// storeCtx bounds a synchronous cache or store call on the request path
func (d Deps) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return boundedCtx(ctx, d.Config.StoreTimeout)
}

func boundedCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// resolvePost maps an ID or slug to the canonical post reference
func (d Deps) resolvePost(ctx context.Context, ref domain.PostRef) (domain.PostRef, error) {
	ctx, cancel := d.storeCtx(ctx)
	defer cancel()

	id, err := d.Repos.Posts.ResolvePost(ctx, ref.Type, ref.ID)
	if err != nil {
		return domain.PostRef{}, err
	}
	return domain.PostRef{Type: ref.Type, ID: id}, nil
}
