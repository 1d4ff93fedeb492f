package domain

import (
	"errors"
	"fmt"
	"time"
)

// PostType discriminates the two post storage shapes
type PostType string

const (
	// PostTypeEditorial posts are published through admin review and keep a
	// materialized stats aggregate recomputed from view events.
	PostTypeEditorial PostType = "editorial"
	// PostTypeCommunity posts are user-submitted and keep denormalized
	// counters on the post row.
	PostTypeCommunity PostType = "community"
)

// ParsePostType validates a post type coming from a URL or query string
func ParsePostType(s string) (PostType, error) {
	switch PostType(s) {
	case PostTypeEditorial, PostTypeCommunity:
		return PostType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPostType, s)
}

// PostRef identifies a post across both storage shapes
type PostRef struct {
	Type PostType `json:"post_type"`
	ID   string   `json:"post_id"`
}

func (r PostRef) String() string {
	return string(r.Type) + ":" + r.ID
}

// PostStats is the shared, cacheable aggregate for one post. It never carries
// viewer-specific fields.
type PostStats struct {
	TotalViews         int64      `json:"total_views"`
	UniqueSessionViews int64      `json:"unique_session_views"`
	IdentifiedViews    int64      `json:"identified_views"`
	AnonymousViews     int64      `json:"anonymous_views"`
	TotalLikes         int64      `json:"total_likes"`
	AvgViewDuration    float64    `json:"avg_view_duration"`
	LastViewedAt       *time.Time `json:"last_viewed_at,omitempty"`
}

// ViewerStats is PostStats plus the per-viewer like state
type ViewerStats struct {
	PostStats
	HasLiked bool `json:"has_liked"`
}

// TrendingPost is one ranked entry returned by the trending ranker
type TrendingPost struct {
	PostType     PostType   `json:"post_type"`
	PostID       string     `json:"post_id"`
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	ViewCount    int64      `json:"view_count"`
	LikeCount    int64      `json:"like_count"`
	LastViewedAt *time.Time `json:"last_viewed_at,omitempty"`
}

// TrendingScope selects which post types the ranker considers
type TrendingScope string

const (
	ScopeEditorial TrendingScope = "editorial"
	ScopeCommunity TrendingScope = "community"
	ScopeBoth      TrendingScope = "both"
)

// ParseTrendingScope defaults an empty scope to both
func ParseTrendingScope(s string) (TrendingScope, error) {
	switch TrendingScope(s) {
	case "":
		return ScopeBoth, nil
	case ScopeEditorial, ScopeCommunity, ScopeBoth:
		return TrendingScope(s), nil
	}
	return "", fmt.Errorf("invalid trending scope %q", s)
}

var (
	ErrPostNotFound          = errors.New("post not found")
	ErrInvalidPostType       = errors.New("invalid post type")
	ErrDuplicateLike         = errors.New("like already exists")
	ErrViewerRequired        = errors.New("authenticated viewer required")
	ErrEngagementUnsupported = errors.New("engagement metrics are only recorded for editorial posts")
)
