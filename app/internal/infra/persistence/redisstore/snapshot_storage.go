package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
)

// SnapshotStorage stores each snapshot as a plain string value. A zero TTL
// keeps snapshots until they are overwritten.
type SnapshotStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotStorage(client *redis.Client, ttl time.Duration) *SnapshotStorage {
	return &SnapshotStorage{client: client, ttl: ttl}
}

func (s *SnapshotStorage) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domcart.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (s *SnapshotStorage) Write(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Ping reports whether the server answers.
func (s *SnapshotStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
