package handler

import (
	"errors"
	"net/http"
	"time"

	"postpulse/internal/domain"
	"postpulse/internal/middleware"
	"postpulse/internal/service"
	apperrors "postpulse/pkg/errors"
	"postpulse/pkg/logger"
)

// StatsHandler serves per-post stats
type StatsHandler struct {
	stats  service.StatsReader
	logger *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats service.StatsReader, logger *logger.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

// PostStatsResponse is the public stats shape. Comment counts are not
// tracked by this service, so totalComments is never set.
type PostStatsResponse struct {
	Success            bool       `json:"success"`
	TotalViews         int64      `json:"totalViews"`
	UniqueSessionViews int64      `json:"uniqueSessionViews"`
	IdentifiedViews    int64      `json:"identifiedViews"`
	AnonymousViews     int64      `json:"anonymousViews"`
	TotalLikes         int64      `json:"totalLikes"`
	TotalComments      *int64     `json:"totalComments,omitempty"`
	AvgViewDuration    float64    `json:"avgViewDuration"`
	HasLiked           bool       `json:"hasLiked"`
	LastViewedAt       *time.Time `json:"lastViewedAt,omitempty"`
}

// GetStats handles GET /api/posts/{postType}/{postRef}/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	post, err := postRefFromRequest(r)
	if err != nil {
		writeError(w, apperrors.NewValidationError("Invalid post type", nil))
		return
	}

	var viewerID *string
	if viewer := middleware.ViewerFromContext(r.Context()); viewer != nil {
		viewerID = &viewer.ID
	}

	stats, err := h.stats.GetStats(r.Context(), post, viewerID)
	if err != nil {
		writeError(w, h.mapError(post, err))
		return
	}

	writeOK(w, PostStatsResponse{
		Success:            true,
		TotalViews:         stats.TotalViews,
		UniqueSessionViews: stats.UniqueSessionViews,
		IdentifiedViews:    stats.IdentifiedViews,
		AnonymousViews:     stats.AnonymousViews,
		TotalLikes:         stats.TotalLikes,
		AvgViewDuration:    stats.AvgViewDuration,
		HasLiked:           stats.HasLiked,
		LastViewedAt:       stats.LastViewedAt,
	}, h.logger)
}

// mapError turns anything but a missing post into 503 so the UI renders its
// zero-count fallback
func (h *StatsHandler) mapError(post domain.PostRef, err error) error {
	if errors.Is(err, domain.ErrPostNotFound) {
		return apperrors.NewNotFoundError("Post not found")
	}

	h.logger.WithError(err).WithField("post", post.String()).Error("Failed to read stats")
	return apperrors.NewUnavailableError("Stats temporarily unavailable", err)
}
