package model

import "time"

// Document represents a document's persisted content.
//
// Only the fields the collaboration core needs are modeled here; ownership,
// sharing grants, and directory placement live in the external document
// service.
type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserPresence describes one connected user in a document room.
type UserPresence struct {
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	ConnectedAt time.Time `json:"connected_at"`
}
