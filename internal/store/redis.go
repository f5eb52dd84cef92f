package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultPrefixKey = "domainacq:last_email_prefix"

// RedisPrefixState shares the last email prefix between processes through Redis.
type RedisPrefixState struct {
	client *redis.Client
	key    string
}

func NewRedisPrefixState(client *redis.Client, key string) *RedisPrefixState {
	if key == "" {
		key = DefaultPrefixKey
	}
	return &RedisPrefixState{client: client, key: key}
}

// NewRedisClient parses url and pings the server. An empty url means Redis is
// not configured and returns nil, nil.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (r *RedisPrefixState) LoadLastPrefix(ctx context.Context) (string, error) {
	v, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load last prefix: %w", err)
	}
	return v, nil
}

func (r *RedisPrefixState) SaveLastPrefix(ctx context.Context, prefix string) error {
	if err := r.client.Set(ctx, r.key, prefix, 0).Err(); err != nil {
		return fmt.Errorf("save last prefix: %w", err)
	}
	return nil
}
