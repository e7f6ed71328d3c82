package model

import "errors"

var (
	// ErrDocumentNotFound is returned when a document has no persisted content.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrRoomNotFound is returned when no room is active for a document.
	ErrRoomNotFound = errors.New("room not found")

	// ErrConnectionClosed is returned when writing to a connection that has
	// already been torn down.
	ErrConnectionClosed = errors.New("connection closed")
)
