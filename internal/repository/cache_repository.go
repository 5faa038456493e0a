package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheRepository fronts redis for the active-layout hot path and the
// governance event channel. Cache failures are soft: callers log and fall
// through to postgres.
type CacheRepository struct {
	client *redis.Client
}

// NewCacheRepository constructs the repository.
func NewCacheRepository(client *redis.Client) *CacheRepository {
	return &CacheRepository{client: client}
}

func activeLayoutKey(mallID string) string {
	return fmt.Sprintf("layout:active:%s", mallID)
}

// GetActiveLayout returns the cached active layout payload, or nil on miss.
func (r *CacheRepository) GetActiveLayout(ctx context.Context, mallID string) ([]byte, error) {
	payload, err := r.client.Get(ctx, activeLayoutKey(mallID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached layout: %w", err)
	}
	return payload, nil
}

// SetActiveLayout caches the active layout payload with the given TTL.
func (r *CacheRepository) SetActiveLayout(ctx context.Context, mallID string, payload []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, activeLayoutKey(mallID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache layout: %w", err)
	}
	return nil
}

// InvalidateActiveLayout drops the cached layout after a publish.
func (r *CacheRepository) InvalidateActiveLayout(ctx context.Context, mallID string) error {
	if err := r.client.Del(ctx, activeLayoutKey(mallID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached layout: %w", err)
	}
	return nil
}

// PublishEvent pushes a serialized domain event onto the channel consumed by
// downstream viewers and notification fan-out.
func (r *CacheRepository) PublishEvent(ctx context.Context, channel string, payload []byte) error {
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
