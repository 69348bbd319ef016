package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SaveMessage stores the URLs found in a chat message.
// A second write for the same (channel, ts) replaces the first. Messages never expire.
func (s *Store) SaveMessage(ctx context.Context, msg domain.BookmarkedMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := s.client.Set(ctx, MessageKey(msg.Channel, msg.Timestamp), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// GetMessageURLs returns the URLs stored for a message, in the order they
// appeared, or an empty slice if the message is unknown.
func (s *Store) GetMessageURLs(ctx context.Context, channel, timestamp string) ([]string, error) {
	data, err := s.client.Get(ctx, MessageKey(channel, timestamp)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	var msg domain.BookmarkedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if msg.URLs == nil {
		return []string{}, nil
	}
	return msg.URLs, nil
}
