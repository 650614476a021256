package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rares1928/morning-email/internal/content"
)

const defaultTTL = time.Hour

// Connect parses redisURL, creates a client, and verifies connectivity with a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// ForecastCache wraps a Redis client and provides typed get/set for reduced
// forecast summaries. Entries expire after an hour, so a rerun shortly
// after a failure reuses the same forecast instead of refetching it.
type ForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewForecastCache constructs a ForecastCache with a 1-hour TTL.
func NewForecastCache(client *redis.Client) *ForecastCache {
	return &ForecastCache{client: client, ttl: defaultTTL}
}

// key returns the Redis key for the given coordinate.
func key(coord content.Coordinate) string {
	return fmt.Sprintf("forecast:%s:%.4f:%.4f",
		strings.ToLower(strings.TrimSpace(coord.Name)), coord.Latitude, coord.Longitude)
}

// Get retrieves a cached forecast summary for the coordinate.
// Returns nil, nil on a cache miss (not an error).
func (c *ForecastCache) Get(ctx context.Context, coord content.Coordinate) (*content.DaySummary, error) {
	val, err := c.client.Get(ctx, key(coord)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for %s: %w", coord.Name, err)
	}

	var summary content.DaySummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, fmt.Errorf("unmarshaling cached forecast for %s: %w", coord.Name, err)
	}

	return &summary, nil
}

// Set stores a forecast summary with the configured TTL.
func (c *ForecastCache) Set(ctx context.Context, coord content.Coordinate, summary *content.DaySummary) error {
	if summary == nil {
		return nil
	}

	b, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling forecast for %s: %w", coord.Name, err)
	}

	if err := c.client.Set(ctx, key(coord), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for %s: %w", coord.Name, err)
	}

	return nil
}
