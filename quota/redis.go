package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps counts as integer strings under the derived quota key
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedisStore connects using a redis:// URL
func OpenRedisStore(ctx context.Context, rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStore(client, "modelhub:"), nil
}

// NewRedisStore wraps an existing client; prefix namespaces every key
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Get returns the stored count
func (s *RedisStore) Get(ctx context.Context, modelID, endpointPath string) (int, error) {
	val, err := s.client.Get(ctx, s.prefix+Key(modelID, endpointPath)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota: %w", err)
	}
	return parseCount(val), nil
}

// Increment adds one to the stored count
func (s *RedisStore) Increment(ctx context.Context, modelID, endpointPath string) error {
	if err := s.client.Incr(ctx, s.prefix+Key(modelID, endpointPath)).Err(); err != nil {
		return fmt.Errorf("failed to increment quota: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
