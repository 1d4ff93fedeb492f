package redis

import "fmt"

// Key patterns for engagement tracking. Every key is scoped by post type so
// editorial and community posts never collide when they share an ID.
const (
	KeyViewDedup     = "%s:view:%s:%s"      // {postType}:view:{sessionID}:{postID}
	KeyViewRateLimit = "%s:ratelimit:%s:%s" // {postType}:ratelimit:{ipHash}:{postID}
	KeyPostStats     = "%s:stats:%s"        // {postType}:stats:{postID}
	KeyStatsVersion  = "%s:statsver:%s"     // {postType}:statsver:{postID}
	KeyTrending      = "trending:%s"        // trending:{scope}
)

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

func (kb *KeyBuilder) KeyViewDedup(postType, sessionID, postID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyViewDedup, postType, sessionID, postID))
}

func (kb *KeyBuilder) KeyViewRateLimit(postType, ipHash, postID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyViewRateLimit, postType, ipHash, postID))
}

func (kb *KeyBuilder) KeyPostStats(postType, postID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyPostStats, postType, postID))
}

// KeyStatsVersion counts invalidations of a post's stats snapshot
func (kb *KeyBuilder) KeyStatsVersion(postType, postID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyStatsVersion, postType, postID))
}

func (kb *KeyBuilder) KeyTrending(scope string) string {
	return kb.BuildKey(fmt.Sprintf(KeyTrending, scope))
}
