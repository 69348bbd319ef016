package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Store handles Redis operations for users, bookmarked messages and events
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks the Redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
