package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"postpulse/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordView_EditorialScenario(t *testing.T) {
	env := newTestEnv(t)
	views := NewViewService(env.deps)
	stats := NewStatsService(env.deps)
	ctx := context.Background()

	result, err := views.RecordView(ctx, ViewRequest{Post: editorialPost, Meta: anonymous("s1", "1.2.3.4")})
	require.NoError(t, err)
	assert.True(t, result.Recorded)
	env.drain(t)

	got, err := stats.GetStats(ctx, editorialPost, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TotalViews)
	assert.Equal(t, int64(0), got.TotalLikes)
	assert.False(t, got.HasLiked)

	env.mr.FastForward(time.Minute)

	result, err = views.RecordView(ctx, ViewRequest{Post: editorialPost, Meta: anonymous("s1", "1.2.3.4")})
	require.NoError(t, err)
	assert.False(t, result.Recorded)
	assert.Equal(t, ReasonDuplicate, result.Reason)
	env.drain(t)

	got, err = stats.GetStats(ctx, editorialPost, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TotalViews)
	assert.Len(t, env.store.ViewEvents("e1"), 1)
}

func TestRecordView_CommunityScenario(t *testing.T) {
	env := newTestEnv(t)
	views := NewViewService(env.deps)
	stats := NewStatsService(env.deps)
	ctx := context.Background()

	result, err := views.RecordView(ctx, ViewRequest{Post: communityPost, Meta: anonymous("s1", "1.2.3.4")})
	require.NoError(t, err)
	assert.True(t, result.Recorded)

	meta := anonymous("s2", "1.2.3.4")
	meta.Viewer = &domain.Viewer{ID: "v1"}
	result, err = views.RecordView(ctx, ViewRequest{Post: communityPost, Meta: meta})
	require.NoError(t, err)
	assert.True(t, result.Recorded)

	got, err := stats.GetStats(ctx, communityPost, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TotalViews)
	assert.Equal(t, int64(1), got.IdentifiedViews)
	assert.Equal(t, int64(1), got.AnonymousViews)
	assert.NotNil(t, got.LastViewedAt)
	assert.Empty(t, env.store.ViewEvents("c1"), "community views only touch counters")
}

func TestRecordView_BySlug(t *testing.T) {
	env := newTestEnv(t)
	views := NewViewService(env.deps)

	ref := domain.PostRef{Type: domain.PostTypeEditorial, ID: "welcome-sunday"}
	result, err := views.RecordView(context.Background(), ViewRequest{Post: ref, Meta: anonymous("s1", "1.2.3.4")})
	require.NoError(t, err)
	assert.True(t, result.Recorded)
	env.drain(t)

	events := env.store.ViewEvents("e1")
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].Post.ID)
}

func TestRecordView_EventFields(t *testing.T) {
	env := newTestEnv(t)
	views := NewViewService(env.deps)

	duration := 42
	meta := anonymous("s1", "1.2.3.4")
	meta.Viewer = &domain.Viewer{ID: "v1"}
	_, err := views.RecordView(context.Background(), ViewRequest{
		Post:            editorialPost,
		Meta:            meta,
		Referrer:        strPtr("https://news.example/"),
		DurationSeconds: &duration,
	})
	require.NoError(t, err)
	env.drain(t)

	events := env.store.ViewEvents("e1")
	require.Len(t, events, 1)
	event := events[0]
	require.NotNil(t, event.ViewerID)
	assert.Equal(t, "v1", *event.ViewerID)
	assert.Equal(t, "s1", event.SessionID)
	assert.Equal(t, browserUA, event.UserAgent)
	assert.Equal(t, "https://news.example/", *event.Referrer)
	assert.False(t, event.IsBot)
	assert.Equal(t, 42, *event.DurationSeconds)
}

func TestRecordView_BotWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	views := NewViewService(env.deps)

	for _, post := range []domain.PostRef{editorialPost, communityPost} {
		meta := anonymous("s1", "1.2.3.4")
		meta.UserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

		result, err := views.RecordView(context.Background(), ViewRequest{Post: post, Meta: meta})
		require.NoError(t, err)
		assert.False(t, result.Recorded)
		assert.Equal(t, ReasonBot, result.Reason)
	}
	env.drain(t)

	assert.Empty(t, env.mr.Keys(), "no cache entries for bots")
	assert.Empty(t, env.store.ViewEvents("e1"))

	stats, err := env.deps.Repos.Community.GetStats(context.Background(), "c1")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalViews)
}

func TestRecordView_InvalidatesStatsCache(t *testing.T) {
	env := newTestEnv(t)
	views := NewViewService(env.deps)
	stats := NewStatsService(env.deps)
	ctx := context.Background()

	_, err := stats.GetStats(ctx, communityPost, nil)
	require.NoError(t, err)
	key := env.deps.Cache.KeyBuilder.KeyPostStats("community", "c1")
	require.True(t, env.mr.Exists(key))

	_, err = views.RecordView(ctx, ViewRequest{Post: communityPost, Meta: anonymous("s1", "1.2.3.4")})
	require.NoError(t, err)
	assert.False(t, env.mr.Exists(key))

	_, err = stats.GetStats(ctx, editorialPost, nil)
	require.NoError(t, err)
	key = env.deps.Cache.KeyBuilder.KeyPostStats("editorial", "e1")
	require.True(t, env.mr.Exists(key))

	_, err = views.RecordView(ctx, ViewRequest{Post: editorialPost, Meta: anonymous("s1", "1.2.3.4")})
	require.NoError(t, err)
	env.drain(t)
	assert.False(t, env.mr.Exists(key), "background recompute drops the snapshot")
}

func TestRecordView_Errors(t *testing.T) {
	t.Run("unknown post", func(t *testing.T) {
		env := newTestEnv(t)
		views := NewViewService(env.deps)

		ref := domain.PostRef{Type: domain.PostTypeEditorial, ID: "missing"}
		_, err := views.RecordView(context.Background(), ViewRequest{Post: ref, Meta: anonymous("s1", "1.2.3.4")})
		assert.True(t, errors.Is(err, domain.ErrPostNotFound))
	})

	t.Run("store down", func(t *testing.T) {
		env := newTestEnv(t)
		views := NewViewService(env.deps)
		env.store.Fail(errors.New("connection refused"))

		result, err := views.RecordView(context.Background(), ViewRequest{Post: communityPost, Meta: anonymous("s1", "1.2.3.4")})
		assert.Error(t, err)
		assert.False(t, result.Recorded)
	})

	t.Run("cache down still records", func(t *testing.T) {
		env := newTestEnv(t)
		views := NewViewService(env.deps)
		env.mr.Close()

		result, err := views.RecordView(context.Background(), ViewRequest{Post: communityPost, Meta: anonymous("s1", "1.2.3.4")})
		require.NoError(t, err)
		assert.True(t, result.Recorded)
	})
}
