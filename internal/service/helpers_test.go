package service

import (
	"context"
	"testing"
	"time"

	"postpulse/internal/config"
	"postpulse/internal/domain"
	"postpulse/internal/metrics"
	"postpulse/internal/repository/memory"
	"postpulse/pkg/logger"
	"postpulse/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

var (
	editorialPost = domain.PostRef{Type: domain.PostTypeEditorial, ID: "e1"}
	communityPost = domain.PostRef{Type: domain.PostTypeCommunity, ID: "c1"}
)

type testEnv struct {
	mr    *miniredis.Miniredis
	store *memory.Store
	deps  Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	cache, err := redis.NewClient("redis://"+mr.Addr(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	store := memory.NewStore()
	store.AddPost(domain.PostTypeEditorial, "e1", "welcome-sunday", "Welcome Sunday")
	store.AddPost(domain.PostTypeCommunity, "c1", "my-testimony", "My Testimony")

	cfg := config.DefaultTrackingConfig()
	cfg.StoreTimeout = time.Second
	log := logger.NewNop()
	m := metrics.New(prometheus.NewRegistry())

	return &testEnv{
		mr:    mr,
		store: store,
		deps: Deps{
			Repos:      store.Repositories(),
			Cache:      cache,
			Config:     cfg,
			Logger:     log,
			Metrics:    m,
			Background: NewBackground(5*time.Second, log, m),
		},
	}
}

// withoutCache returns deps that behave as if no REDIS_URL was configured
func (e *testEnv) withoutCache() Deps {
	deps := e.deps
	deps.Cache = nil
	return deps
}

func (e *testEnv) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.deps.Background.Wait(ctx))
}

func anonymous(session, ip string) domain.RequestMeta {
	return domain.RequestMeta{SessionID: session, IPAddress: ip, UserAgent: browserUA}
}

func strPtr(s string) *string { return &s }

func testNow() time.Time { return time.Now().UTC() }
