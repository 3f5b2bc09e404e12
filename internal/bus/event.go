package bus

import "time"

// Event represents a change published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Document collections that emit change events.
const (
	CollectionUsers    = "users"
	CollectionChats    = "chats"
	CollectionMessages = "messages"
)

// DocKind is the event kind for a change to document id in collection.
// The trailing '#' keeps "chat/a" from matching "chat/ab".
func DocKind(collection, id string) string {
	return "doc." + collection + "/" + id + "#"
}

// CollectionKind is the prefix matching every document in collection.
func CollectionKind(collection string) string {
	return "doc." + collection + "/"
}
