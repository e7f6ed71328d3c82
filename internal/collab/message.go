// Package collab provides the real-time collaborative editing core:
// document rooms, presence tracking, and WebSocket message routing.
package collab

import "encoding/json"

// MessageType represents the type of a protocol message.
type MessageType string

const (
	// Client -> Server message types
	MessageTypeUpdate    MessageType = "update" // also Server -> Client
	MessageTypeCursor    MessageType = "cursor"
	MessageTypeSelection MessageType = "selection"
	MessageTypePing      MessageType = "ping"

	// Server -> Client message types
	MessageTypeInit             MessageType = "init"
	MessageTypeUserJoined       MessageType = "user_joined"
	MessageTypeUserLeft         MessageType = "user_left"
	MessageTypeCursorUpdate     MessageType = "cursor_update"
	MessageTypeCursorRemoved    MessageType = "cursor_removed"
	MessageTypeSelectionUpdate  MessageType = "selection_update"
	MessageTypeSelectionRemoved MessageType = "selection_removed"
	MessageTypePong             MessageType = "pong"
	MessageTypeError            MessageType = "error"
)

// Message represents an inbound protocol message from a client.
// Position and Selection are passed through to other members unmodified, so
// they stay raw JSON here.
type Message struct {
	Type      MessageType     `json:"type"`
	Content   string          `json:"content,omitempty"`
	Position  json.RawMessage `json:"position,omitempty"`
	Selection json.RawMessage `json:"selection,omitempty"`
	Timestamp *float64        `json:"timestamp,omitempty"`
}

// Event represents an outbound protocol message to a client.
//
// Content is a pointer so that an init event for an empty document still
// carries the content field on the wire.
type Event struct {
	Type        MessageType     `json:"type"`
	Content     *string         `json:"content,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
	UserName    string          `json:"user_name,omitempty"`
	ActiveUsers int             `json:"active_users,omitempty"`
	Position    json.RawMessage `json:"position,omitempty"`
	Selection   json.RawMessage `json:"selection,omitempty"`
	Color       string          `json:"color,omitempty"`
	Timestamp   *float64        `json:"timestamp,omitempty"`
	Message     string          `json:"message,omitempty"`
}
