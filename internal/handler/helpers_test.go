package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"postpulse/internal/config"
	"postpulse/internal/domain"
	"postpulse/internal/metrics"
	"postpulse/internal/middleware"
	"postpulse/internal/repository/memory"
	"postpulse/internal/service"
	apperrors "postpulse/pkg/errors"
	"postpulse/pkg/logger"
	"postpulse/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15"

// stubAuth accepts "Bearer <viewer id>" for ids starting with "u"
type stubAuth struct{}

func (stubAuth) ValidateViewerToken(ctx context.Context, token string) (*domain.Viewer, error) {
	if strings.HasPrefix(token, "u") {
		return &domain.Viewer{ID: token}, nil
	}
	return nil, apperrors.NewAuthenticationError("Invalid token")
}

type apiEnv struct {
	mr       *miniredis.Miniredis
	store    *memory.Store
	services *service.Services
	router   http.Handler
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	return newAPIEnvWith(t, TrackingOptions{})
}

func newAPIEnvWith(t *testing.T, opts TrackingOptions) *apiEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	cache, err := redis.NewClient("redis://"+mr.Addr(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	store := memory.NewStore()
	store.AddPost(domain.PostTypeEditorial, "e1", "welcome-sunday", "Welcome Sunday")
	store.AddPost(domain.PostTypeCommunity, "c1", "my-testimony", "My Testimony")

	log := logger.NewNop()
	m := metrics.New(prometheus.NewRegistry())
	cfg := config.DefaultTrackingConfig()
	cfg.StoreTimeout = time.Second

	services := service.NewServices(service.Deps{
		Repos:      store.Repositories(),
		Cache:      cache,
		Config:     cfg,
		Logger:     log,
		Metrics:    m,
		Background: service.NewBackground(5*time.Second, log, m),
	})

	return &apiEnv{
		mr:       mr,
		store:    store,
		services: services,
		router: newTestRouter(&Handlers{
			Tracking: NewTrackingHandler(services.Views, services.Engagement, log, opts),
			Stats:    NewStatsHandler(services.Stats, log),
			Likes:    NewLikeHandler(services.Likes, log),
			Trending: NewTrendingHandler(services.Trending, log),
		}),
	}
}

func newTestRouter(h *Handlers) http.Handler {
	log := logger.NewNop()
	r := chi.NewRouter()
	r.Use(middleware.OptionalAuth(stubAuth{}, log))
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r, middleware.RequireViewer(log))
	})
	return r
}

// drain waits for background recompute and engagement tasks
func (e *apiEnv) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.services.Background.Wait(ctx))
}

type requestOption func(*http.Request)

func withViewer(id string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+id) }
}

func withSession(id string) requestOption {
	return func(r *http.Request) { r.Header.Set(SessionHeader, id) }
}

// withIP sets the connection address
func withIP(ip string) requestOption {
	return func(r *http.Request) { r.RemoteAddr = ip + ":4711" }
}

func withForwardedFor(chain string) requestOption {
	return func(r *http.Request) { r.Header.Set("X-Forwarded-For", chain) }
}

func withUserAgent(ua string) requestOption {
	return func(r *http.Request) { r.Header.Set("User-Agent", ua) }
}

func withContentType(ct string) requestOption {
	return func(r *http.Request) { r.Header.Set("Content-Type", ct) }
}

func do(t *testing.T, h http.Handler, method, target, body string, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("User-Agent", browserUA)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// okBody decodes a flat success response
func okBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	require.Equal(t, true, body["success"])
	return body
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := decode(t, rec)
	require.Equal(t, false, body["success"])
	errBody, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	return errBody
}
