package collab

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents one WebSocket client connection in a document room,
// together with its identity metadata.
type Client struct {
	id       string
	docID    string
	userID   string
	userName string
	joinedAt time.Time

	conn   *websocket.Conn
	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// NewClient creates a new client for a document. The conn may be nil in
// tests; events are then observed through SendChan.
func NewClient(conn *websocket.Conn, docID, userID, userName string) *Client {
	return &Client{
		id:       uuid.New().String(),
		docID:    docID,
		userID:   userID,
		userName: userName,
		joinedAt: time.Now(),
		conn:     conn,
		send:     make(chan []byte, 256),
	}
}

// ID returns the unique connection id.
func (c *Client) ID() string {
	return c.id
}

// DocID returns the document this client is attached to.
func (c *Client) DocID() string {
	return c.docID
}

// UserID returns the user id for this connection.
func (c *Client) UserID() string {
	return c.userID
}

// DisplayName returns the display name for this connection.
func (c *Client) DisplayName() string {
	return c.userName
}

// JoinedAt returns the time the connection was established.
func (c *Client) JoinedAt() time.Time {
	return c.joinedAt
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// SendChan returns the outbound queue for the client.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}

// trySend queues raw data for delivery. It reports false when the client is
// already closed or its outbound queue is full; in the latter case the
// client is closed, and the caller is expected to treat it as disconnected.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		// Queue full: a stalled consumer must not block the room.
		c.closeLocked()
		return false
	}
}

// SendEvent marshals and queues an event for the client. It reports false
// when the client must be treated as disconnected.
func (c *Client) SendEvent(ev *Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		return true // nothing deliverable, but the connection is fine
	}
	return c.trySend(data)
}

// Close closes the client's outbound queue.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed returns true if the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
