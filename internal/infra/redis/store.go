package redis

import (
	"context"
	"errors"
	"time"

	"fullscreen-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Store is a Redis-backed implementation of app.Store.
// Every key is written with the configured TTL so abandoned progress ages out on its own.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, prefix: "fsq:", ttl: ttl}
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *Store) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *Store) key(key string) string {
	return s.prefix + key
}
