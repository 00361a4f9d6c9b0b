package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect parses url and pings the server. An empty url returns a nil client,
// which every helper in this package treats as "cache disabled".
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// JSONCache stores small lookup tables as JSON blobs.
type JSONCache struct {
	Client *redis.Client
	Prefix string
}

func NewJSONCache(client *redis.Client, prefix string) *JSONCache {
	return &JSONCache{Client: client, Prefix: prefix}
}

// Get decodes the cached value into dst and reports whether it was found.
func (c *JSONCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.Client == nil {
		return false, nil
	}
	raw, err := c.Client.Get(ctx, c.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *JSONCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c == nil || c.Client == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.Prefix+key, raw, ttl).Err()
}

// ViewTracker remembers which visitor already viewed which ad within a window.
type ViewTracker struct {
	Client *redis.Client
	Window time.Duration
}

func NewViewTracker(client *redis.Client, window time.Duration) *ViewTracker {
	return &ViewTracker{Client: client, Window: window}
}

// FirstView reports whether this is the visitor's first view of the ad in the window.
// Without Redis every view counts.
func (v *ViewTracker) FirstView(ctx context.Context, adID, visitor string) (bool, error) {
	if v == nil || v.Client == nil || v.Window <= 0 || visitor == "" {
		return true, nil
	}
	return v.Client.SetNX(ctx, "views:"+adID+":"+visitor, 1, v.Window).Result()
}

// RateLimiter is a fixed-window request counter.
type RateLimiter struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{Client: client, Limit: limit, Window: window}
}

// Allow counts one hit for key. Missing Redis, a zero limit or a Redis error let the request through.
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.Client == nil || l.Limit <= 0 {
		return true
	}
	key = "ratelimit:" + key
	count, err := l.Client.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		l.Client.Expire(ctx, key, l.Window)
	} else if ttl, err := l.Client.TTL(ctx, key).Result(); err == nil && ttl < 0 {
		// the first EXPIRE was lost; without a TTL the key would lock the client out for good
		l.Client.Expire(ctx, key, l.Window)
	}
	return count <= int64(l.Limit)
}
