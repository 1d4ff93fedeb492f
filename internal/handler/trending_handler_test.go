package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"postpulse/internal/domain"
	"postpulse/internal/service"
	"postpulse/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func trendingOf(t *testing.T, rec *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	body := okBody(t, rec)
	posts, ok := body["posts"].([]interface{})
	require.True(t, ok, "posts must be a list: %s", rec.Body.String())
	return posts
}

func TestGetTrending(t *testing.T) {
	env := newAPIEnv(t)

	for _, session := range []string{"s1", "s2", "s3"} {
		do(t, env.router, http.MethodPost, "/api/posts/community/c1/view", "", withSession(session))
	}
	do(t, env.router, http.MethodPost, "/api/posts/editorial/e1/view", "", withSession("s1"))
	env.drain(t)

	rec := do(t, env.router, http.MethodGet, "/api/trending", "")
	require.Equal(t, http.StatusOK, rec.Code)

	posts := trendingOf(t, rec)
	require.Len(t, posts, 2)

	first := posts[0].(map[string]interface{})
	assert.Equal(t, "community", first["postType"])
	assert.Equal(t, "c1", first["postId"])
	assert.Equal(t, "my-testimony", first["slug"])
	assert.Equal(t, "My Testimony", first["title"])
	assert.Equal(t, float64(3), first["viewCount"])
	assert.NotEmpty(t, first["lastViewedAt"])

	second := posts[1].(map[string]interface{})
	assert.Equal(t, "editorial", second["postType"])

	rec = do(t, env.router, http.MethodGet, "/api/trending?scope=editorial&limit=5", "")
	posts = trendingOf(t, rec)
	require.Len(t, posts, 1)
	assert.Equal(t, "e1", posts[0].(map[string]interface{})["postId"])
}

func TestGetTrending_EmptyIsAList(t *testing.T) {
	env := newAPIEnv(t)

	rec := do(t, env.router, http.MethodGet, "/api/trending?scope=community", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, trendingOf(t, rec))
}

func TestGetTrending_Validation(t *testing.T) {
	router := newTestRouter(&Handlers{Trending: NewTrendingHandler(&mockTrending{}, logger.NewNop())})

	for _, target := range []string{
		"/api/trending?scope=videos",
		"/api/trending?limit=abc",
		"/api/trending?limit=0",
		"/api/trending?limit=-3",
	} {
		t.Run(target, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetTrending_Forwarding(t *testing.T) {
	trending := &mockTrending{}
	trending.On("GetTrending", mock.Anything, domain.ScopeBoth, service.DefaultTrendingLimit).
		Return([]domain.TrendingPost{}, nil).Once()
	trending.On("GetTrending", mock.Anything, domain.ScopeCommunity, 500).
		Return(nil, errors.New("read replica down")).Once()
	router := newTestRouter(&Handlers{Trending: NewTrendingHandler(trending, logger.NewNop())})

	rec := do(t, router, http.MethodGet, "/api/trending", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/trending?scope=community&limit=500", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	trending.AssertExpectations(t)
}
