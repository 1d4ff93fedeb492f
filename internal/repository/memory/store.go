// Package memory is an in-process durable store with the same contract as
// the Postgres repositories. The container falls back to it when no
// DATABASE_URL is configured, and service tests run against it.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"postpulse/internal/domain"
	"postpulse/internal/repository"

	"github.com/google/uuid"
)

type post struct {
	id    string
	slug  string
	title string
	// denormalized counters, community posts only
	counters domain.PostStats
}

type likeKey struct {
	post     domain.PostRef
	viewerID string
}

type engagementKey struct {
	sessionID string
	postID    string
}

// Store holds every table in maps guarded by one mutex
type Store struct {
	mu         sync.RWMutex
	posts      map[domain.PostType]map[string]*post
	events     []domain.ViewEvent
	aggregates map[string]domain.PostStats
	likes      map[likeKey]time.Time
	engagement map[engagementKey]domain.EngagementSample
	failure    error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		posts: map[domain.PostType]map[string]*post{
			domain.PostTypeEditorial: {},
			domain.PostTypeCommunity: {},
		},
		aggregates: map[string]domain.PostStats{},
		likes:      map[likeKey]time.Time{},
		engagement: map[engagementKey]domain.EngagementSample{},
	}
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Posts:      postRepo{s},
		Editorial:  editorialRepo{s},
		Community:  communityRepo{s},
		Likes:      likeRepo{s},
		Engagement: engagementRepo{s},
		Health: func(ctx context.Context) error {
			return s.check()
		},
	}
}

// AddPost registers a post so it can be resolved and tracked
func (s *Store) AddPost(postType domain.PostType, id, slug, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[postType][id] = &post{id: id, slug: slug, title: title}
}

// Fail makes every subsequent call return err; nil restores normal operation
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// ViewEvents returns a copy of the recorded events for a post
func (s *Store) ViewEvents(postID string) []domain.ViewEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ViewEvent
	for _, e := range s.events {
		if e.Post.ID == postID {
			out = append(out, e)
		}
	}
	return out
}

// EngagementSample returns the stored sample for (session, post)
func (s *Store) EngagementSample(sessionID, postID string) (domain.EngagementSample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sample, ok := s.engagement[engagementKey{sessionID, postID}]
	return sample, ok
}

// SetLastViewed backdates a post's last view, for trending window tests and seeding
func (s *Store) SetLastViewed(ref domain.PostRef, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ref.Type {
	case domain.PostTypeCommunity:
		if p, ok := s.posts[ref.Type][ref.ID]; ok {
			p.counters.LastViewedAt = &at
		}
	case domain.PostTypeEditorial:
		if agg, ok := s.aggregates[ref.ID]; ok {
			agg.LastViewedAt = &at
			s.aggregates[ref.ID] = agg
		}
	}
}

func (s *Store) check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failure
}

type postRepo struct{ s *Store }

func (r postRepo) ResolvePost(ctx context.Context, postType domain.PostType, idOrSlug string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failure != nil {
		return "", r.s.failure
	}

	table, ok := r.s.posts[postType]
	if !ok {
		return "", domain.ErrInvalidPostType
	}
	if p, ok := table[idOrSlug]; ok {
		return p.id, nil
	}
	for _, p := range table {
		if p.slug == idOrSlug {
			return p.id, nil
		}
	}
	return "", domain.ErrPostNotFound
}

type editorialRepo struct{ s *Store }

func (r editorialRepo) InsertViewEvent(ctx context.Context, event *domain.ViewEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failure != nil {
		return r.s.failure
	}

	event.ID = uuid.NewString()
	r.s.events = append(r.s.events, *event)
	return nil
}

func (r editorialRepo) RecomputeStats(ctx context.Context, postID string) (*domain.PostStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failure != nil {
		return nil, r.s.failure
	}

	var stats domain.PostStats
	sessions := map[string]struct{}{}
	var durationSum, durationCount int64
	for _, e := range r.s.events {
		if e.Post.ID != postID {
			continue
		}
		stats.TotalViews++
		sessions[e.SessionID] = struct{}{}
		if e.ViewerID != nil {
			stats.IdentifiedViews++
		} else {
			stats.AnonymousViews++
		}
		if e.DurationSeconds != nil {
			durationSum += int64(*e.DurationSeconds)
			durationCount++
		}
		if stats.LastViewedAt == nil || e.CreatedAt.After(*stats.LastViewedAt) {
			at := e.CreatedAt
			stats.LastViewedAt = &at
		}
	}
	stats.UniqueSessionViews = int64(len(sessions))
	if durationCount > 0 {
		stats.AvgViewDuration = float64(durationSum) / float64(durationCount)
	}
	stats.TotalLikes = r.s.countLikes(domain.PostRef{Type: domain.PostTypeEditorial, ID: postID})

	r.s.aggregates[postID] = stats
	return &stats, nil
}

func (r editorialRepo) GetStats(ctx context.Context, postID string) (*domain.PostStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failure != nil {
		return nil, r.s.failure
	}

	stats, ok := r.s.aggregates[postID]
	if !ok {
		return nil, nil
	}
	return &stats, nil
}

func (r editorialRepo) SetLikeCount(ctx context.Context, postID string, count int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failure != nil {
		return r.s.failure
	}

	if stats, ok := r.s.aggregates[postID]; ok {
		stats.TotalLikes = count
		r.s.aggregates[postID] = stats
	}
	return nil
}

func (r editorialRepo) Trending(ctx context.Context, since time.Time, limit int) ([]domain.TrendingPost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failure != nil {
		return nil, r.s.failure
	}

	var out []domain.TrendingPost
	for id, stats := range r.s.aggregates {
		p, ok := r.s.posts[domain.PostTypeEditorial][id]
		if !ok || stats.LastViewedAt == nil || stats.LastViewedAt.Before(since) {
			continue
		}
		out = append(out, trendingEntry(domain.PostTypeEditorial, p, stats))
	}
	return rank(out, limit), nil
}

type communityRepo struct{ s *Store }

func (r communityRepo) RecordView(ctx context.Context, postID string, identified bool, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failure != nil {
		return r.s.failure
	}

	p, ok := r.s.posts[domain.PostTypeCommunity][postID]
	if !ok {
		return domain.ErrPostNotFound
	}
	p.counters.TotalViews++
	if identified {
		p.counters.IdentifiedViews++
	} else {
		p.counters.AnonymousViews++
	}
	if p.counters.LastViewedAt == nil || at.After(*p.counters.LastViewedAt) {
		p.counters.LastViewedAt = &at
	}
	return nil
}

func (r communityRepo) AdjustLikeCount(ctx context.Context, postID string, delta int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failure != nil {
		return 0, r.s.failure
	}

	p, ok := r.s.posts[domain.PostTypeCommunity][postID]
	if !ok {
		return 0, domain.ErrPostNotFound
	}
	p.counters.TotalLikes += delta
	if p.counters.TotalLikes < 0 {
		p.counters.TotalLikes = 0
	}
	return p.counters.TotalLikes, nil
}

func (r communityRepo) GetStats(ctx context.Context, postID string) (*domain.PostStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failure != nil {
		return nil, r.s.failure
	}

	p, ok := r.s.posts[domain.PostTypeCommunity][postID]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	stats := p.counters
	stats.UniqueSessionViews = stats.TotalViews
	return &stats, nil
}

func (r communityRepo) Trending(ctx context.Context, since time.Time, limit int) ([]domain.TrendingPost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failure != nil {
		return nil, r.s.failure
	}

	var out []domain.TrendingPost
	for _, p := range r.s.posts[domain.PostTypeCommunity] {
		if p.counters.LastViewedAt == nil || p.counters.LastViewedAt.Before(since) {
			continue
		}
		out = append(out, trendingEntry(domain.PostTypeCommunity, p, p.counters))
	}
	return rank(out, limit), nil
}

func (r communityRepo) ReconcileLikeCounts(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failure != nil {
		return 0, r.s.failure
	}

	var fixed int64
	for id, p := range r.s.posts[domain.PostTypeCommunity] {
		actual := r.s.countLikes(domain.PostRef{Type: domain.PostTypeCommunity, ID: id})
		if p.counters.TotalLikes != actual {
			p.counters.TotalLikes = actual
			fixed++
		}
	}
	return fixed, nil
}

type likeRepo struct{ s *Store }

func (r likeRepo) Exists(ctx context.Context, ref domain.PostRef, viewerID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failure != nil {
		return false, r.s.failure
	}

	_, ok := r.s.likes[likeKey{ref, viewerID}]
	return ok, nil
}

func (r likeRepo) Create(ctx context.Context, ref domain.PostRef, viewerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failure != nil {
		return r.s.failure
	}

	key := likeKey{ref, viewerID}
	if _, ok := r.s.likes[key]; ok {
		return domain.ErrDuplicateLike
	}
	r.s.likes[key] = time.Now()
	return nil
}

func (r likeRepo) Delete(ctx context.Context, ref domain.PostRef, viewerID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failure != nil {
		return false, r.s.failure
	}

	key := likeKey{ref, viewerID}
	if _, ok := r.s.likes[key]; !ok {
		return false, nil
	}
	delete(r.s.likes, key)
	return true, nil
}

func (r likeRepo) Count(ctx context.Context, ref domain.PostRef) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failure != nil {
		return 0, r.s.failure
	}
	return r.s.countLikes(ref), nil
}

type engagementRepo struct{ s *Store }

func (r engagementRepo) Upsert(ctx context.Context, sample *domain.EngagementSample) (*domain.EngagementSample, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failure != nil {
		return nil, r.s.failure
	}

	key := engagementKey{sample.SessionID, sample.PostID}
	stored, ok := r.s.engagement[key]
	if !ok {
		stored = *sample
	} else {
		stored.Merge(*sample)
	}
	r.s.engagement[key] = stored
	return &stored, nil
}

// countLikes must be called with the lock held
func (s *Store) countLikes(ref domain.PostRef) int64 {
	var n int64
	for key := range s.likes {
		if key.post == ref {
			n++
		}
	}
	return n
}

func trendingEntry(postType domain.PostType, p *post, stats domain.PostStats) domain.TrendingPost {
	return domain.TrendingPost{
		PostType:     postType,
		PostID:       p.id,
		Slug:         p.slug,
		Title:        p.title,
		ViewCount:    stats.TotalViews,
		LikeCount:    stats.TotalLikes,
		LastViewedAt: stats.LastViewedAt,
	}
}

// rank mirrors the ORDER BY of the Postgres trending queries
func rank(posts []domain.TrendingPost, limit int) []domain.TrendingPost {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].ViewCount != posts[j].ViewCount {
			return posts[i].ViewCount > posts[j].ViewCount
		}
		if posts[i].LikeCount != posts[j].LikeCount {
			return posts[i].LikeCount > posts[j].LikeCount
		}
		return posts[i].PostID < posts[j].PostID
	})
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}
