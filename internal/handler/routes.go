package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers groups the handlers mounted under /api
type Handlers struct {
	Tracking *TrackingHandler
	Stats    *StatsHandler
	Likes    *LikeHandler
	Trending *TrendingHandler
}

// RegisterRoutes mounts the post and trending routes. Like routes are wrapped
// with requireViewer.
func (h *Handlers) RegisterRoutes(r chi.Router, requireViewer func(http.Handler) http.Handler) {
	r.Route("/posts/{postType}/{postRef}", func(r chi.Router) {
		r.Post("/view", h.Tracking.RecordView)
		r.Post("/engagement", h.Tracking.RecordEngagement)
		r.Get("/stats", h.Stats.GetStats)

		r.Group(func(r chi.Router) {
			r.Use(requireViewer)
			r.Post("/likes", h.Likes.Toggle)
			r.Delete("/likes", h.Likes.Toggle)
		})
	})

	r.Get("/trending", h.Trending.GetTrending)
}
