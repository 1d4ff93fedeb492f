package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Nil is returned by Get when the key does not exist.
const Nil = redis.Nil

// Client wraps go-redis with call timing logs and an environment-aware key builder.
type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// incrWithExpire increments KEYS[1] and sets a millisecond expiry (ARGV[1])
// only when the increment created the key, in a single round-trip.
var incrWithExpire = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// setIfVersion writes KEYS[1] with a millisecond TTL (ARGV[3]) only while the
// counter at KEYS[2] still equals ARGV[1]; a missing counter reads as "0".
var setIfVersion = redis.NewScript(`
local v = redis.call('GET', KEYS[2]) or '0'
if v ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// NewClient creates a new Redis client and verifies the connection
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 2
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Get retrieves a value from Redis. A missing key returns Nil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		c.observe("redis_get", key, start, nil, zap.Bool("hit", false))
		return "", err
	}
	c.observe("redis_get", key, start, err, zap.Bool("hit", err == nil))
	return val, err
}

// Set stores a value in Redis with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	c.observe("redis_set", key, start, err)
	return err
}

// SetNX sets a value only if the key does not exist yet
func (c *Client) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	start := time.Now()
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	c.observe("redis_setnx", key, start, err, zap.Bool("result", ok))
	return ok, err
}

// Delete removes keys from Redis
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.rdb.Del(ctx, keys...).Err()
	c.log.Debug("redis_del",
		zap.Int("keys", len(keys)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	return err
}

// Exists reports how many of the given keys exist
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	start := time.Now()
	n, err := c.rdb.Exists(ctx, keys...).Result()
	if err != nil {
		c.log.Info("redis_exists",
			zap.Int("keys", len(keys)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
	} else {
		c.log.Debug("redis_exists",
			zap.Int64("result", n),
			zap.Int("keys", len(keys)),
			zap.Duration("duration", time.Since(start)))
	}
	return n, err
}

// IncrWithExpire atomically increments a counter and starts its TTL on the
// first increment. Later increments never extend the window.
func (c *Client) IncrWithExpire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	start := time.Now()
	n, err := incrWithExpire.Run(ctx, c.rdb, []string{key}, ttl.Milliseconds()).Int64()
	c.observe("redis_incr_expire", key, start, err, zap.Int64("value", n))
	return n, err
}

// SetIfVersion stores value under key unless versionKey moved away from
// version since the caller read it. It reports whether the value was written.
func (c *Client) SetIfVersion(ctx context.Context, key, versionKey, version string, value interface{}, ttl time.Duration) (bool, error) {
	start := time.Now()
	n, err := setIfVersion.Run(ctx, c.rdb, []string{key, versionKey}, version, value, ttl.Milliseconds()).Int64()
	c.observe("redis_set_if_version", key, start, err, zap.Bool("result", n == 1))
	return n == 1, err
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	if err != nil {
		c.log.Info("redis_ping", zap.Duration("duration", time.Since(start)), zap.Error(err))
	} else {
		c.log.Debug("redis_ping", zap.Duration("duration", time.Since(start)))
	}
	return err
}

// observe logs a single command. Failures go to info so they show up in
// production logs, successes stay at debug.
func (c *Client) observe(op, key string, start time.Time, err error, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("key_prefix", prefixForLog(key)),
		zap.Duration("duration", time.Since(start)),
	}, extra...)
	if err != nil {
		c.log.Info(op, append(fields, zap.Error(err))...)
		return
	}
	c.log.Debug(op, fields...)
}

// prefixForLog returns a safe prefix of a key to avoid logging PII
func prefixForLog(key string) string {
	if len(key) <= 24 {
		return key
	}
	return key[:24] + "…"
}
