package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

const (
	cacheNamespace = "credit-tracker:"
	scanBatch      = 100
)

// RedisCacheRepository keeps cached read models (program structure, basket
// credits, dashboard) in Redis as JSON under a fixed key namespace.
type RedisCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCacheRepository constructs a Redis backed cache repository.
func NewRedisCacheRepository(client *redis.Client, logger *zap.Logger) *RedisCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCacheRepository{client: client, logger: logger}
}

func namespaced(key string) string { return cacheNamespace + key }

// Get decodes the value stored at key into dest. Missing keys and a nil
// client both report ErrCacheMiss.
func (r *RedisCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, namespaced(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return appErrors.ErrCacheMiss
	case err != nil:
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

// Set stores value at key for ttl.
func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, namespaced(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// DeleteByPattern unlinks every key matching pattern, scanning in batches.
func (r *RedisCacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}

	removed := 0
	flush := func(keys []string) error {
		if len(keys) == 0 {
			return nil
		}
		if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("cache invalidate %s: %w", pattern, err)
		}
		removed += len(keys)
		return nil
	}

	batch := make([]string, 0, scanBatch)
	iter := r.client.Scan(ctx, 0, namespaced(pattern), scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) < scanBatch {
			continue
		}
		if err := flush(batch); err != nil {
			return err
		}
		batch = batch[:0]
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %s: %w", pattern, err)
	}
	if err := flush(batch); err != nil {
		return err
	}
	r.logger.Debug("cache invalidated", zap.String("pattern", pattern), zap.Int("keys", removed))
	return nil
}

// Close releases the Redis connection.
func (r *RedisCacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
