package redis

import "github.com/MrSnakeDoc/readbot/internal/domain"

const (
	// KeyPrefixUser is the prefix for per-user credential hashes
	KeyPrefixUser = "readbot:user:"
	// KeyPrefixMessage is the prefix for bookmarked message documents
	KeyPrefixMessage = "readbot:message:"
	// KeyPrefixEvent is the prefix for processed chat event markers
	KeyPrefixEvent = "readbot:event:"
)

// UserKey returns the Redis key for a user's credential hash.
// Each field of the hash is a service name holding that service's credentials as JSON.
func UserKey(userID string) string {
	return KeyPrefixUser + userID
}

// MessageKey returns the Redis key for a bookmarked message
func MessageKey(channel, timestamp string) string {
	return KeyPrefixMessage + domain.MessageID(channel, timestamp)
}

// EventKey returns the Redis key marking a chat event as processed
func EventKey(eventID string) string {
	return KeyPrefixEvent + eventID
}
