package handler

import (
	"errors"
	"net/http"

	"postpulse/internal/domain"
	"postpulse/internal/middleware"
	"postpulse/internal/service"
	apperrors "postpulse/pkg/errors"
	"postpulse/pkg/logger"
)

// LikeHandler toggles likes for authenticated viewers
type LikeHandler struct {
	likes  service.LikeToggler
	logger *logger.Logger
}

// NewLikeHandler creates a new like handler
func NewLikeHandler(likes service.LikeToggler, logger *logger.Logger) *LikeHandler {
	return &LikeHandler{likes: likes, logger: logger}
}

// LikeResponse reports the state after the toggle
type LikeResponse struct {
	Success   bool  `json:"success"`
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

// Toggle handles POST and DELETE /api/posts/{postType}/{postRef}/likes.
// Both methods flip the current state.
func (h *LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	post, err := postRefFromRequest(r)
	if err != nil {
		writeError(w, apperrors.NewValidationError("Invalid post type", nil))
		return
	}

	viewer := middleware.ViewerFromContext(r.Context())
	if viewer == nil {
		writeError(w, apperrors.NewLoginRequiredError("Login required"))
		return
	}

	result, err := h.likes.ToggleLike(r.Context(), post, viewer.ID)
	switch {
	case errors.Is(err, domain.ErrPostNotFound):
		writeError(w, apperrors.NewNotFoundError("Post not found"))
		return
	case err != nil:
		h.logger.WithError(err).WithField("post", post.String()).Error("Failed to toggle like")
		writeError(w, apperrors.NewUnavailableError("Could not update like, please retry", err))
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"post":      post.String(),
		"viewer_id": viewer.ID,
		"liked":     result.Liked,
	}).Debug("Like toggled")

	writeOK(w, LikeResponse{Success: true, Liked: result.Liked, LikeCount: result.LikeCount}, h.logger)
}
