package redis

import (
	"context"
	"fmt"
	"time"
)

// DefaultEventTTL is how long a processed event id is remembered.
// Slack retries a delivery for a few minutes at most.
const DefaultEventTTL = 10 * time.Minute

// MarkEvent records eventID as processed. It returns false if the event was
// already marked, meaning this delivery is a retry.
func (s *Store) MarkEvent(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	ok, err := s.client.SetNX(ctx, EventKey(eventID), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event: %w", err)
	}
	return ok, nil
}
