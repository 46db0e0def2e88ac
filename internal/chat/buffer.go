package chat

import "sync"

// DefaultBufferCapacity is the number of recent messages kept as conversation
// context for the assistant
const DefaultBufferCapacity = 50

// ContextBuffer is a fixed-capacity ordered sequence of recent chat messages.
// When capacity is exceeded the oldest entries are evicted first. It is safe
// for concurrent use; handlers for different connections run in parallel and
// all append into the same buffer.
type ContextBuffer struct {
	mu       sync.Mutex
	capacity int
	messages []Message
}

// NewContextBuffer creates a buffer holding at most capacity messages.
// A non-positive capacity falls back to DefaultBufferCapacity.
func NewContextBuffer(capacity int) *ContextBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &ContextBuffer{
		capacity: capacity,
		messages: make([]Message, 0, capacity),
	}
}

// Append adds a message to the tail, evicting from the head when the buffer
// is full
func (b *ContextBuffer) Append(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = append(b.messages, msg)
	if len(b.messages) > b.capacity {
		overflow := len(b.messages) - b.capacity
		b.messages = append(b.messages[:0], b.messages[overflow:]...)
	}
}

// Snapshot returns a copy of all buffered messages in arrival order
func (b *ContextBuffer) Snapshot() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// LastK returns a copy of the most recent k messages in arrival order
// (oldest of the window first). If fewer than k messages exist, all are
// returned.
func (b *ContextBuffer) LastK(k int) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if k > len(b.messages) {
		k = len(b.messages)
	}
	if k <= 0 {
		return nil
	}

	out := make([]Message, k)
	copy(out, b.messages[len(b.messages)-k:])
	return out
}

// Len returns the number of buffered messages
func (b *ContextBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}
