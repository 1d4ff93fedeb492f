package domain

import "time"

// ViewEvent is one accepted view. Immutable once written.
type ViewEvent struct {
	ID              string    `json:"id"`
	Post            PostRef   `json:"post"`
	ViewerID        *string   `json:"viewer_id,omitempty"`
	SessionID       string    `json:"session_id"`
	IPAddress       string    `json:"ip_address"`
	UserAgent       string    `json:"user_agent"`
	Referrer        *string   `json:"referrer,omitempty"`
	IsBot           bool      `json:"is_bot"`
	DurationSeconds *int      `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// LikeRelation exists while the viewer likes the post
type LikeRelation struct {
	Post      PostRef   `json:"post"`
	ViewerID  string    `json:"viewer_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeResult is returned by a toggle
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// EngagementSample aggregates one session's activity on an editorial post
type EngagementSample struct {
	PostID            string    `json:"post_id"`
	SessionID         string    `json:"session_id"`
	ViewerID          *string   `json:"viewer_id,omitempty"`
	ScrollDepth       int       `json:"scroll_depth"`
	TimeOnPageSeconds int       `json:"time_on_page"`
	Clicks            int       `json:"clicks"`
	Shares            int       `json:"shares"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Merge folds an incoming report into an existing sample: scroll depth keeps
// its maximum, time on page is the latest cumulative value and clicks and
// shares are deltas added to the running sums. The Postgres upsert applies the
// same rule in SQL.
func (s *EngagementSample) Merge(in EngagementSample) {
	if in.ScrollDepth > s.ScrollDepth {
		s.ScrollDepth = in.ScrollDepth
	}
	s.TimeOnPageSeconds = in.TimeOnPageSeconds
	s.Clicks += in.Clicks
	s.Shares += in.Shares
	if in.ViewerID != nil {
		s.ViewerID = in.ViewerID
	}
	s.UpdatedAt = in.UpdatedAt
}

// ClampScrollDepth bounds a reported scroll depth to 0..100
func ClampScrollDepth(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
