package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// fieldUpdatedAt holds the RFC3339 time of the last merge
	fieldUpdatedAt = "_updated_at"
	// maxMergeAttempts bounds optimistic-lock retries in MergeUser
	maxMergeAttempts = 5
)

// ReadUser returns the stored record for userID, or an empty record if none exists.
func (s *Store) ReadUser(ctx context.Context, userID string) (domain.UserRecord, error) {
	fields, err := s.client.HGetAll(ctx, UserKey(userID)).Result()
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("failed to read user: %w", err)
	}
	return decodeUser(userID, fields)
}

// MergeUser applies patch to the stored record and returns the merged result.
//
// Only the hash fields of the services named in the patch are rewritten, so
// connecting one service never touches another. Concurrent merges to the same
// service are serialized with WATCH and retried.
func (s *Store) MergeUser(ctx context.Context, userID string, patch domain.UserPatch) (domain.UserRecord, error) {
	key := UserKey(userID)
	var merged domain.UserRecord

	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		current, err := decodeUser(userID, fields)
		if err != nil {
			return err
		}

		merged = current.Merge(patch)
		merged.UpdatedAt = time.Now().UTC()

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for kind := range patch {
				creds, ok := merged.Services[kind]
				if !ok {
					pipe.HDel(ctx, key, string(kind))
					continue
				}
				data, err := json.Marshal(creds)
				if err != nil {
					return fmt.Errorf("failed to marshal %s credentials: %w", kind, err)
				}
				pipe.HSet(ctx, key, string(kind), data)
			}
			pipe.HSet(ctx, key, fieldUpdatedAt, merged.UpdatedAt.Format(time.RFC3339Nano))
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return merged, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return domain.UserRecord{}, fmt.Errorf("failed to merge user: %w", err)
	}

	return domain.UserRecord{}, fmt.Errorf("failed to merge user %s: too much contention", userID)
}

// decodeUser builds a UserRecord from the raw hash fields.
// Unknown service fields are ignored.
func decodeUser(userID string, fields map[string]string) (domain.UserRecord, error) {
	rec := domain.NewUserRecord(userID)
	for field, raw := range fields {
		if field == fieldUpdatedAt {
			if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				rec.UpdatedAt = t
			}
			continue
		}

		kind := domain.ServiceKind(field)
		if !kind.Valid() {
			continue
		}

		var creds domain.Credentials
		if err := json.Unmarshal([]byte(raw), &creds); err != nil {
			return domain.UserRecord{}, fmt.Errorf("failed to unmarshal %s credentials: %w", kind, err)
		}
		rec.Services[kind] = creds
	}
	return rec, nil
}
