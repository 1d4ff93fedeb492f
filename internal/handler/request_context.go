package handler

import (
	"net"
	"net/http"
	"strings"
	"time"

	"postpulse/internal/domain"
	"postpulse/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// SessionCookieName carries the tracking session between page loads
	SessionCookieName = "pp_session"
	// SessionHeader lets clients without cookie access send their session id
	SessionHeader = "X-Session-ID"

	sessionCookieMaxAge = 30 * 24 * time.Hour
	maxSessionIDLength  = 128
)

// resolveRequestMeta builds the tracking context of a request. The session
// id comes from the body, then the X-Session-ID header, then the session
// cookie; a new one is generated when none is usable.
func resolveRequestMeta(r *http.Request, bodySessionID string, proxies ClientIPConfig) domain.RequestMeta {
	sessionID := firstValidSessionID(bodySessionID, r.Header.Get(SessionHeader), sessionFromCookie(r))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return domain.RequestMeta{
		SessionID: sessionID,
		IPAddress: proxies.clientIP(r),
		UserAgent: r.UserAgent(),
		Viewer:    middleware.ViewerFromContext(r.Context()),
	}
}

func sessionFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func firstValidSessionID(candidates ...string) string {
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if validSessionID(candidate) {
			return candidate
		}
	}
	return ""
}

// validSessionID accepts short tokens of URL-safe characters
func validSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// setSessionCookie echoes the session id back so the next page load reuses it
func setSessionCookie(w http.ResponseWriter, sessionID string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(SessionHeader, sessionID)
}

// ClientIPConfig says which forwarding headers come from our own proxies.
// The zero value trusts none of them and uses the connection address, so a
// client cannot pick the IP its views are rate limited under.
type ClientIPConfig struct {
	// Header is a single-value header set by the edge proxy, such as
	// CF-Connecting-IP or X-Real-IP
	Header string
	// TrustedHops is the number of proxies in front of the server that append
	// to X-Forwarded-For
	TrustedHops int
}

func (c ClientIPConfig) clientIP(r *http.Request) string {
	if c.Header != "" {
		if ip := normalizeIP(r.Header.Get(c.Header)); ip != "" {
			return ip
		}
	}
	if c.TrustedHops > 0 {
		if ip := forwardedClientIP(r.Header.Values("X-Forwarded-For"), c.TrustedHops); ip != "" {
			return ip
		}
	}
	return remoteIP(r)
}

// forwardedClientIP reads X-Forwarded-For from the right. The last hops
// entries were appended by trusted proxies and the one written by the
// outermost proxy is the client; anything left of it is client supplied.
func forwardedClientIP(values []string, hops int) string {
	var chain []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				chain = append(chain, part)
			}
		}
	}
	if len(chain) == 0 {
		return ""
	}

	i := len(chain) - hops
	if i < 0 {
		i = 0
	}
	return normalizeIP(chain[i])
}

func remoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// normalizeIP returns "" for anything that is not an IP address
func normalizeIP(raw string) string {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return ""
	}
	return ip.String()
}

// postRefFromRequest reads {postType} and {postRef} from the route
func postRefFromRequest(r *http.Request) (domain.PostRef, error) {
	postType, err := domain.ParsePostType(chi.URLParam(r, "postType"))
	if err != nil {
		return domain.PostRef{}, err
	}

	ref := strings.TrimSpace(chi.URLParam(r, "postRef"))
	if ref == "" {
		return domain.PostRef{}, domain.ErrPostNotFound
	}
	return domain.PostRef{Type: postType, ID: ref}, nil
}
