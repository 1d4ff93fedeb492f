package middleware

import (
	"context"
	"net/http"
	"strings"

	"postpulse/internal/domain"
	"postpulse/internal/service"
	"postpulse/pkg/errors"
	"postpulse/pkg/logger"

	"github.com/google/uuid"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// ViewerContextKey holds the authenticated *domain.Viewer
	ViewerContextKey ContextKey = "viewer"
	// authFailedContextKey marks a request whose bearer token was rejected
	authFailedContextKey ContextKey = "auth_failed"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// ViewerFromContext returns the authenticated viewer, or nil for anonymous requests
func ViewerFromContext(ctx context.Context) *domain.Viewer {
	viewer, _ := ctx.Value(ViewerContextKey).(*domain.Viewer)
	return viewer
}

// WithViewer stores viewer in ctx
func WithViewer(ctx context.Context, viewer *domain.Viewer) context.Context {
	return context.WithValue(ctx, ViewerContextKey, viewer)
}

// OptionalAuth resolves the viewer from a bearer token when one is sent.
// Tracking must keep working for anonymous readers, so a missing or invalid
// token never fails the request here; RequireViewer decides for routes that
// need identity.
func OptionalAuth(authService service.ViewerAuthenticator, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if !strings.HasPrefix(authHeader, "Bearer ") || token == "" {
				next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, authFailedContextKey, true)))
				return
			}

			viewer, err := authService.ValidateViewerToken(ctx, token)
			if err != nil {
				logger.WithError(err).Debug("Bearer token rejected, continuing as anonymous")
				next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, authFailedContextKey, true)))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithViewer(ctx, viewer)))
		})
	}
}

// RequireViewer rejects anonymous requests with a login-required error the
// UI turns into a redirect
func RequireViewer(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ViewerFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			message := "Login required"
			if failed, _ := r.Context().Value(authFailedContextKey).(bool); failed {
				message = "Invalid or expired token"
			}
			logger.WithField("path", r.URL.Path).Debug("Anonymous request to viewer-only route")
			errors.WriteJSON(w, errors.NewLoginRequiredError(message))
		})
	}
}

// RequestID attaches a request ID, reusing the caller's X-Request-ID if sent
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 128 {
				requestID = uuid.NewString()
			}

			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), RequestIDContextKey, requestID)))
		})
	}
}
