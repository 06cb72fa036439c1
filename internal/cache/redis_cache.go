package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"vendite/backend/internal/domain"
)

// RedisViewCache shares views between backend replicas.
type RedisViewCache struct {
	client *redis.Client
}

func NewRedisViewCache(addr string, password string, db int) *RedisViewCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisViewCache{client: client}
}

func (c *RedisViewCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisViewCache) Close() error {
	return c.client.Close()
}

func (c *RedisViewCache) Get(ctx context.Context, kind domain.RecordKind) ([]domain.StoredRecord, bool, error) {
	val, err := c.client.Get(ctx, viewKey(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var records []domain.StoredRecord
	if err := json.Unmarshal(val, &records); err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (c *RedisViewCache) Set(ctx context.Context, kind domain.RecordKind, records []domain.StoredRecord, ttl time.Duration) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, viewKey(kind), payload, ttl).Err()
}

func (c *RedisViewCache) Invalidate(ctx context.Context, kind domain.RecordKind) error {
	return c.client.Del(ctx, viewKey(kind)).Err()
}
