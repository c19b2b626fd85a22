package prefs

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "critter:prefs:"

// RedisStore keeps preferences as plain string keys under a prefix
type RedisStore struct {
	client *backend.Client
	prefix string
	owned  bool
}

type RedisOption func(*RedisStore)

// WithPrefix sets the key namespace
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// OpenRedis connects using a redis:// URL and verifies the connection
func OpenRedis(ctx context.Context, rawURL string, opts ...RedisOption) (*RedisStore, error) {
	o, err := backend.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := backend.NewClient(o)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	s := NewRedisFromClient(client, opts...)
	s.owned = true
	return s, nil
}

// NewRedisFromClient wraps an existing client; Close leaves it open
func NewRedisFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: defaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, backend.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
