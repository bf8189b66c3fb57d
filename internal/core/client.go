package core

import (
	"sync"

	"github.com/google/uuid"
)

const (
	commandBuffer = 16
	eventBuffer   = 64
)

// Client is one live connection of an authenticated user as seen by the core layer.
// A user may hold several clients at once.
type Client struct {
	ID       string
	UserID   int64
	Name     string
	Commands chan *Command
	Events   chan *Event

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewClient constructs a client with a fresh connection id and initialized channels.
func NewClient(userID int64, name string) *Client {
	return &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     name,
		Commands: make(chan *Command, commandBuffer),
		Events:   make(chan *Event, eventBuffer),
		done:     make(chan struct{}),
	}
}

// Done is closed once the client has been unregistered.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// deliver queues an event without blocking. It reports false when the client is
// closed or its queue is full; the event is dropped for this client only.
func (c *Client) deliver(ev *Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// close stops delivery and closes Events so writers can drain and exit.
func (c *Client) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.closed = true
	close(c.done)
	close(c.Events)
	return true
}
