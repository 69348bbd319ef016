package domain

// BookmarkedMessage is a chat message that contained links.
// It is identified by (Channel, Timestamp) and written once when observed.
type BookmarkedMessage struct {
	Channel   string   `json:"channel"`
	Timestamp string   `json:"ts"`
	User      string   `json:"user,omitempty"`
	URLs      []string `json:"urls"`
}

// MessageID is the composite identifier of a chat message.
func MessageID(channel, timestamp string) string {
	return channel + ":" + timestamp
}

// ID returns the composite identifier of m.
func (m BookmarkedMessage) ID() string {
	return MessageID(m.Channel, m.Timestamp)
}
