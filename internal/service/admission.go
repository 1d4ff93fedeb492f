package service

import (
	"context"
	"crypto/sha256"
	"fmt"

	"postpulse/internal/domain"
)

// Admission is the outcome of a view admission check
type Admission int

const (
	Admitted Admission = iota
	RejectedDuplicate
	RejectedRateLimited
)

func (a Admission) String() string {
	switch a {
	case RejectedDuplicate:
		return "duplicate"
	case RejectedRateLimited:
		return "rate limited"
	default:
		return "admitted"
	}
}

// Admitter decides whether a view attempt may be counted, using a dedup
// marker per (session, post) and a rate-limit counter per (IP, post).
type Admitter struct {
	Deps
}

// NewAdmitter creates an admitter over the shared cache
func NewAdmitter(deps Deps) *Admitter {
	return &Admitter{Deps: deps}
}

// AdmitView checks the dedup marker first so that duplicates never consume
// rate-limit budget. When the cache is missing or failing the view is
// admitted.
func (a *Admitter) AdmitView(ctx context.Context, post domain.PostRef, sessionID, ipAddress string) Admission {
	if a.Cache == nil {
		// no cache configured: nothing to dedup against
		return Admitted
	}

	ctx, cancel := a.storeCtx(ctx)
	defer cancel()

	keys := a.Cache.KeyBuilder
	postType := string(post.Type)
	dedupKey := keys.KeyViewDedup(postType, sessionID, post.ID)

	seen, err := a.Cache.Exists(ctx, dedupKey)
	if err != nil {
		a.failOpen(post, err)
		return Admitted
	}
	if seen > 0 {
		return RejectedDuplicate
	}

	rateKey := keys.KeyViewRateLimit(postType, hashIP(ipAddress), post.ID)
	count, err := a.Cache.IncrWithExpire(ctx, rateKey, a.Config.ViewRateWindow)
	if err != nil {
		a.failOpen(post, err)
		return Admitted
	}
	if count > a.Config.ViewRateLimit {
		return RejectedRateLimited
	}

	// SetNX closes the gap between the Exists check and this write: of two
	// racing requests for the same session only one sets the marker. The
	// loser has already spent one unit of rate-limit budget.
	set, err := a.Cache.SetNX(ctx, dedupKey, "1", a.Config.ViewCooldown)
	if err != nil {
		a.failOpen(post, err)
		return Admitted
	}
	if !set {
		return RejectedDuplicate
	}

	return Admitted
}

func (a *Admitter) failOpen(post domain.PostRef, err error) {
	a.Metrics.AdmissionFailOpen()

	a.Logger.WithError(err).WithField("post", post.String()).
		Warn("View admitted without dedup or rate limiting, cache unavailable")
}

// hashIP keeps raw addresses out of cache keys
func hashIP(ipAddress string) string {
	hash := sha256.Sum256([]byte(ipAddress))
	return fmt.Sprintf("%x", hash)[:16]
}
