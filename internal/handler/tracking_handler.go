package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"postpulse/internal/domain"
	"postpulse/internal/service"
	apperrors "postpulse/pkg/errors"
	"postpulse/pkg/logger"
)

// maxTrackingBody bounds view and engagement payloads
const maxTrackingBody = 16 << 10

// TrackingHandler handles the write-only view and engagement endpoints.
// Both report success whenever the request was well formed, whether or not
// anything was counted.
type TrackingHandler struct {
	views      service.ViewRecorder
	engagement service.EngagementRecorder
	logger     *logger.Logger
	opts       TrackingOptions
}

// TrackingOptions are the deployment-specific parts of request handling
type TrackingOptions struct {
	SecureCookies bool
	ClientIP      ClientIPConfig
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(views service.ViewRecorder, engagement service.EngagementRecorder, logger *logger.Logger, opts TrackingOptions) *TrackingHandler {
	return &TrackingHandler{
		views:      views,
		engagement: engagement,
		logger:     logger,
		opts:       opts,
	}
}

// ViewRequest is the body of POST /view
type ViewRequest struct {
	SessionID string  `json:"sessionId"`
	Referrer  *string `json:"referrer,omitempty"`
	Duration  *int    `json:"duration,omitempty"`
}

// ViewResponse echoes the session id the view was attributed to
type ViewResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
}

// EngagementRequest is the body of POST /engagement
type EngagementRequest struct {
	SessionID   string `json:"sessionId"`
	ScrollDepth int    `json:"scrollDepth"`
	TimeOnPage  int    `json:"timeOnPage"`
	Clicks      int    `json:"clicks"`
	Shares      int    `json:"shares"`
}

// RecordView handles POST /api/posts/{postType}/{postRef}/view
func (h *TrackingHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	post, err := postRefFromRequest(r)
	if err != nil {
		writeError(w, apperrors.NewValidationError("Invalid post type", nil))
		return
	}

	var req ViewRequest
	if err := decodeTrackingBody(w, r, &req, func(form url.Values) {
		req.SessionID = form.Get("sessionId")
		if ref := form.Get("referrer"); ref != "" {
			req.Referrer = &ref
		}
		if d, err := strconv.Atoi(form.Get("duration")); err == nil {
			req.Duration = &d
		}
	}); err != nil {
		// a malformed body still counts as a view attempt without extras
		h.logger.WithError(err).Debug("Ignoring unreadable view body")
		req = ViewRequest{}
	}

	meta := resolveRequestMeta(r, req.SessionID, h.opts.ClientIP)
	if req.Referrer == nil {
		if ref := r.Referer(); ref != "" {
			req.Referrer = &ref
		}
	}
	if req.Duration != nil && *req.Duration < 0 {
		req.Duration = nil
	}

	result, err := h.views.RecordView(r.Context(), service.ViewRequest{
		Post:            post,
		Meta:            meta,
		Referrer:        req.Referrer,
		DurationSeconds: req.Duration,
	})
	switch {
	case errors.Is(err, domain.ErrPostNotFound):
		h.logger.WithField("post", post.String()).Debug("View for unknown post")
	case err != nil:
		h.logger.WithError(err).WithField("post", post.String()).Error("Failed to record view")
	case !result.Recorded:
		h.logger.WithFields(map[string]interface{}{
			"post":   post.String(),
			"reason": result.Reason,
		}).Debug("View not counted")
	}

	setSessionCookie(w, meta.SessionID, h.opts.SecureCookies)
	writeJSON(w, http.StatusOK, ViewResponse{Success: true, SessionID: meta.SessionID}, h.logger)
}

// RecordEngagement handles POST /api/posts/{postType}/{postRef}/engagement.
// Accepts JSON, or the text/plain and form bodies sent by navigator.sendBeacon
// when the page is hidden.
func (h *TrackingHandler) RecordEngagement(w http.ResponseWriter, r *http.Request) {
	post, err := postRefFromRequest(r)
	if err != nil {
		writeError(w, apperrors.NewValidationError("Invalid post type", nil))
		return
	}

	var req EngagementRequest
	if err := decodeTrackingBody(w, r, &req, func(form url.Values) {
		req.SessionID = form.Get("sessionId")
		req.ScrollDepth = formInt(form, "scrollDepth")
		req.TimeOnPage = formInt(form, "timeOnPage")
		req.Clicks = formInt(form, "clicks")
		req.Shares = formInt(form, "shares")
	}); err != nil {
		writeError(w, apperrors.NewValidationError("Invalid engagement payload", nil))
		return
	}

	meta := resolveRequestMeta(r, req.SessionID, h.opts.ClientIP)

	err = h.engagement.RecordEngagement(r.Context(), service.EngagementRequest{
		Post:              post,
		SessionID:         meta.SessionID,
		ViewerID:          meta.ViewerID(),
		ScrollDepth:       req.ScrollDepth,
		TimeOnPageSeconds: req.TimeOnPage,
		Clicks:            req.Clicks,
		Shares:            req.Shares,
	})
	if errors.Is(err, domain.ErrEngagementUnsupported) {
		writeError(w, apperrors.NewValidationError(err.Error(), map[string]interface{}{
			"post_type": string(post.Type),
		}))
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("post", post.String()).Warn("Engagement report dropped")
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true}, h.logger)
}

// decodeTrackingBody reads JSON (including text/plain beacons) into dst, or
// hands form-encoded values to fromForm. An empty body is not an error.
func decodeTrackingBody(w http.ResponseWriter, r *http.Request, dst interface{}, fromForm func(url.Values)) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxTrackingBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("parse form: %w", err)
		}
		fromForm(r.PostForm)
		return nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxTrackingBody); err != nil {
			return fmt.Errorf("parse multipart form: %w", err)
		}
		fromForm(r.PostForm)
		return nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func formInt(form url.Values, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(form.Get(key)))
	if err != nil {
		return 0
	}
	return v
}
