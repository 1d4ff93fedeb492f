package handler

import (
	"net/http"
	"strconv"
	"time"

	"postpulse/internal/domain"
	"postpulse/internal/service"
	apperrors "postpulse/pkg/errors"
	"postpulse/pkg/logger"
)

// TrendingHandler serves the trending list
type TrendingHandler struct {
	trending service.TrendingRanker
	logger   *logger.Logger
}

// NewTrendingHandler creates a new trending handler
func NewTrendingHandler(trending service.TrendingRanker, logger *logger.Logger) *TrendingHandler {
	return &TrendingHandler{trending: trending, logger: logger}
}

// TrendingPostResponse is one ranked post summary
type TrendingPostResponse struct {
	PostType     domain.PostType `json:"postType"`
	PostID       string          `json:"postId"`
	Slug         string          `json:"slug"`
	Title        string          `json:"title"`
	ViewCount    int64           `json:"viewCount"`
	LikeCount    int64           `json:"likeCount"`
	LastViewedAt *time.Time      `json:"lastViewedAt,omitempty"`
}

// TrendingResponse lists ranked posts, most viewed first
type TrendingResponse struct {
	Success bool                   `json:"success"`
	Posts   []TrendingPostResponse `json:"posts"`
}

// GetTrending handles GET /api/trending?scope=&limit=
func (h *TrendingHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	scope, err := domain.ParseTrendingScope(query.Get("scope"))
	if err != nil {
		writeError(w, apperrors.NewValidationError("scope must be editorial, community or both", nil))
		return
	}

	limit := service.DefaultTrendingLimit
	if raw := query.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, apperrors.NewValidationError("limit must be a positive integer", nil))
			return
		}
	}

	posts, err := h.trending.GetTrending(r.Context(), scope, limit)
	if err != nil {
		h.logger.WithError(err).WithField("scope", string(scope)).Error("Failed to rank trending posts")
		writeError(w, apperrors.NewUnavailableError("Trending temporarily unavailable", err))
		return
	}

	response := make([]TrendingPostResponse, 0, len(posts))
	for _, p := range posts {
		response = append(response, TrendingPostResponse{
			PostType:     p.PostType,
			PostID:       p.PostID,
			Slug:         p.Slug,
			Title:        p.Title,
			ViewCount:    p.ViewCount,
			LikeCount:    p.LikeCount,
			LastViewedAt: p.LastViewedAt,
		})
	}

	writeOK(w, TrendingResponse{Success: true, Posts: response}, h.logger)
}
