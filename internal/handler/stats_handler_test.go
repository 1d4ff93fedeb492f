package handler

import (
	"errors"
	"net/http"
	"testing"

	"postpulse/internal/domain"
	"postpulse/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetStats_AfterViewsAndLike(t *testing.T) {
	env := newAPIEnv(t)

	do(t, env.router, http.MethodPost, "/api/posts/editorial/e1/view", `{"duration":30}`, withSession("s1"), withViewer("u1"))
	do(t, env.router, http.MethodPost, "/api/posts/editorial/e1/view", `{"duration":10}`, withSession("s2"))
	env.drain(t)

	rec := do(t, env.router, http.MethodPost, "/api/posts/editorial/e1/likes", "", withViewer("u1"))
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("as the liking viewer", func(t *testing.T) {
		rec := do(t, env.router, http.MethodGet, "/api/posts/editorial/welcome-sunday/stats", "", withViewer("u1"))
		require.Equal(t, http.StatusOK, rec.Code)

		body := okBody(t, rec)
		assert.Equal(t, float64(2), body["totalViews"])
		assert.Equal(t, float64(2), body["uniqueSessionViews"])
		assert.Equal(t, float64(1), body["identifiedViews"])
		assert.Equal(t, float64(1), body["anonymousViews"])
		assert.Equal(t, float64(1), body["totalLikes"])
		assert.Equal(t, float64(20), body["avgViewDuration"])
		assert.Equal(t, true, body["hasLiked"])
		assert.NotEmpty(t, body["lastViewedAt"])
		assert.NotContains(t, body, "totalComments")
	})

	t.Run("anonymous reader shares the cached aggregate", func(t *testing.T) {
		rec := do(t, env.router, http.MethodGet, "/api/posts/editorial/e1/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := okBody(t, rec)
		assert.Equal(t, float64(1), body["totalLikes"])
		assert.Equal(t, false, body["hasLiked"])
	})

	t.Run("another viewer", func(t *testing.T) {
		rec := do(t, env.router, http.MethodGet, "/api/posts/editorial/e1/stats", "", withViewer("u2"))
		assert.Equal(t, false, okBody(t, rec)["hasLiked"])
	})
}

func TestGetStats_CommunityWithoutViews(t *testing.T) {
	env := newAPIEnv(t)

	rec := do(t, env.router, http.MethodGet, "/api/posts/community/c1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := okBody(t, rec)
	assert.Equal(t, float64(0), body["totalViews"])
	assert.Equal(t, false, body["hasLiked"])
	assert.NotContains(t, body, "lastViewedAt")
}

func TestGetStats_CommunityUniqueSessions(t *testing.T) {
	env := newAPIEnv(t)

	for _, session := range []string{"s1", "s2", "s3"} {
		rec := do(t, env.router, http.MethodPost, "/api/posts/community/c1/view", "", withSession(session))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	body := okBody(t, do(t, env.router, http.MethodGet, "/api/posts/community/my-testimony/stats", ""))
	assert.Equal(t, float64(3), body["totalViews"])
	assert.Equal(t, float64(3), body["uniqueSessionViews"])
	assert.Equal(t, float64(3), body["anonymousViews"])
	assert.NotContains(t, body, "data")
}

func TestGetStats_Errors(t *testing.T) {
	env := newAPIEnv(t)

	t.Run("unknown post", func(t *testing.T) {
		rec := do(t, env.router, http.MethodGet, "/api/posts/editorial/missing/stats", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", errorOf(t, rec)["type"])
	})

	t.Run("invalid post type", func(t *testing.T) {
		rec := do(t, env.router, http.MethodGet, "/api/posts/video/e1/stats", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store unavailable", func(t *testing.T) {
		stats := &mockStats{}
		stats.On("GetStats", mock.Anything, domain.PostRef{Type: domain.PostTypeCommunity, ID: "c1"}, (*string)(nil)).
			Return(nil, errors.New("context deadline exceeded"))
		router := newTestRouter(&Handlers{Stats: NewStatsHandler(stats, logger.NewNop())})

		rec := do(t, router, http.MethodGet, "/api/posts/community/c1/stats", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "unavailable", errorOf(t, rec)["type"])
		stats.AssertExpectations(t)
	})

	t.Run("viewer id is forwarded", func(t *testing.T) {
		stats := &mockStats{}
		stats.On("GetStats", mock.Anything, mock.Anything, mock.MatchedBy(func(id *string) bool {
			return id != nil && *id == "u7"
		})).Return(&domain.ViewerStats{HasLiked: true}, nil)
		router := newTestRouter(&Handlers{Stats: NewStatsHandler(stats, logger.NewNop())})

		rec := do(t, router, http.MethodGet, "/api/posts/editorial/e1/stats", "", withViewer("u7"))
		assert.Equal(t, true, okBody(t, rec)["hasLiked"])
		stats.AssertExpectations(t)
	})
}
