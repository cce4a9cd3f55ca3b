package memory

import (
	"sync"

	"github.com/ejulen/very-fancy-chat/internal/domain"
)

// MessageStore keeps the board's recent messages in arrival order, oldest at
// index 0. It enforces no capacity of its own: the board evicts after append.
type MessageStore struct {
	mu       sync.RWMutex
	messages []domain.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make([]domain.Message, 0, domain.WindowSize+1),
	}
}

func (s *MessageStore) Append(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// EvictOldest removes and returns the message at index 0.
func (s *MessageStore) EvictOldest() (domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) == 0 {
		return domain.Message{}, false
	}

	oldest := s.messages[0]
	s.messages[0] = domain.Message{}
	s.messages = s.messages[1:]
	return oldest, true
}

// Snapshot returns a copy of the current window; callers may keep it.
func (s *MessageStore) Snapshot() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
