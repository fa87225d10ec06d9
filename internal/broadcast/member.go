package broadcast

import (
	"sync"

	"github.com/vovakirdan/platformer/internal/protocol"
)

// Member is a topic subscriber.
type Member interface {
	// ID returns the unique member identifier.
	ID() string

	// Send queues a message for delivery. Must be non-blocking.
	// It reports false when an older message had to be dropped.
	Send(msg protocol.Message) bool

	// Done returns a channel that closes when the member goes away.
	Done() <-chan struct{}
}

// ChannelMember is a Member backed by a buffered channel.
// Messages are delivered in the order they were sent.
type ChannelMember struct {
	id       string
	mu       sync.Mutex
	messages chan protocol.Message
	done     chan struct{}
	closed   bool
}

// NewChannelMember creates a member that buffers up to bufferSize messages.
func NewChannelMember(id string, bufferSize int) *ChannelMember {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &ChannelMember{
		id:       id,
		messages: make(chan protocol.Message, bufferSize),
		done:     make(chan struct{}),
	}
}

// ID returns the member identifier.
func (m *ChannelMember) ID() string {
	return m.id
}

// Send queues msg. If the buffer is full the oldest message is dropped.
// Messages sent after Close are discarded.
func (m *ChannelMember) Send(msg protocol.Message) bool {
	// Serialize senders so drop-oldest cannot reorder messages, and so no
	// send races the close of the channel.
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return true
	}

	select {
	case m.messages <- msg:
		return true
	default:
	}

	select {
	case <-m.messages:
	default:
	}
	select {
	case m.messages <- msg:
	default:
	}
	return false
}

// Messages returns the delivery channel. It is closed by Close once the
// buffered messages have been drained.
func (m *ChannelMember) Messages() <-chan protocol.Message {
	return m.messages
}

// Done returns the done channel.
func (m *ChannelMember) Done() <-chan struct{} {
	return m.done
}

// Close marks the member as gone and closes its delivery channel.
// Safe to call multiple times.
func (m *ChannelMember) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
	close(m.messages)
}
