// Package session provides the live-connection primitives of the game
// server: the actor↔channel registry, broadcast group membership, the
// per-channel outbound event queue, and per-channel session state.
package session

import (
	"fmt"
	"sync"
)

// Channel is the outbound event queue for one connected client. The
// transport layer drains Events and writes each payload to the wire; the
// coordinator pushes without ever blocking on a slow receiver.
type Channel struct {
	id     string
	events chan []byte
	mu     sync.Mutex
	closed bool
}

// NewChannel creates a Channel with the given id and buffer size.
//
// Precondition: id must be non-empty.
// Postcondition: Returns a Channel with an open events queue.
func NewChannel(id string, bufferSize int) *Channel {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Channel{
		id:     id,
		events: make(chan []byte, bufferSize),
	}
}

// ID returns the channel's unique identifier.
func (c *Channel) ID() string {
	return c.id
}

// Push enqueues a payload for delivery.
//
// Postcondition: The payload is queued, or an error if the channel is
// closed or its buffer is full. Push never blocks.
func (c *Channel) Push(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("channel %s is closed", c.id)
	}
	select {
	case c.events <- data:
		return nil
	default:
		return fmt.Errorf("channel %s event buffer full", c.id)
	}
}

// Events returns the read-only event queue. The transport goroutine reads
// from it until it is closed.
func (c *Channel) Events() <-chan []byte {
	return c.events
}

// Close marks the channel closed and closes the event queue. Close is
// idempotent.
//
// Postcondition: Further Push calls return an error.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.events)
	}
	return nil
}

// IsClosed reports whether the channel has been closed.
func (c *Channel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
