package domain

import "time"

// WindowSize is how many recent messages the board retains.
const WindowSize = 5

// TimestampLayout is the fixed yyyy-MM-dd HH:mm:ss display pattern.
const TimestampLayout = "2006-01-02 15:04:05"

// Message is one post on the board. Content is untrusted user input and must
// only ever reach a browser through an escaping renderer.
type Message struct {
	ID        string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// Timestamp formats CreatedAt in the server's local time zone.
func (m Message) Timestamp() string {
	return m.CreatedAt.Local().Format(TimestampLayout)
}

// IsAuthoredBy reports whether sessionID posted the message.
func (m Message) IsAuthoredBy(sessionID string) bool {
	return sessionID != "" && m.AuthorID == sessionID
}
