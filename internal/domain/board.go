package domain

import "context"

// MessageStore is the ordered, bounded window of recent messages.
// Append never checks capacity; the caller evicts.
type MessageStore interface {
	Append(msg Message)
	EvictOldest() (Message, bool)
	Snapshot() []Message
	Len() int
}

// Broadcaster pushes the same fragment to every live subscriber, best effort.
type Broadcaster interface {
	Broadcast(fragment []byte)
}

// FragmentRenderer turns board changes into self-contained HTML fragments.
type FragmentRenderer interface {
	RenderMessage(ctx context.Context, msg Message) ([]byte, error)
	RenderRemoval(ctx context.Context, messageID string) ([]byte, error)
}
