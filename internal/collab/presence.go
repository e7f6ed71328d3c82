package collab

import (
	"bytes"
	"encoding/json"
	"time"
)

// userColors is the fixed palette for remote cursor and selection rendering.
var userColors = []string{
	"#e6194b", "#3cb44b", "#ffb400", "#4363d8", "#f58231",
	"#911eb4", "#46b8b0", "#f032e6", "#7a9e1c", "#2a7fb8",
}

// ColorFor derives a stable display color from a user id. The same user gets
// the same color for the lifetime of the process; distinct users may collide.
func ColorFor(userID string) string {
	sum := 0
	for _, b := range []byte(userID) {
		sum += int(b)
	}
	return userColors[sum%len(userColors)]
}

// cursorState holds the last-known cursor of one user in a room.
type cursorState struct {
	userName  string
	color     string
	position  json.RawMessage
	updatedAt time.Time
}

// selectionState holds the last-known text selection of one user in a room.
type selectionState struct {
	userName  string
	color     string
	selection json.RawMessage
	updatedAt time.Time
}

// selectionCollapsed reports whether a selection payload denotes "no
// selection": absent, null, not an object, missing endpoints, or a range
// whose start equals its end.
func selectionCollapsed(sel json.RawMessage) bool {
	if len(sel) == 0 || bytes.Equal(bytes.TrimSpace(sel), []byte("null")) {
		return true
	}

	var r struct {
		Start json.RawMessage `json:"start"`
		End   json.RawMessage `json:"end"`
	}
	if err := json.Unmarshal(sel, &r); err != nil {
		return true
	}
	if len(r.Start) == 0 || len(r.End) == 0 {
		return true
	}

	start, end := new(bytes.Buffer), new(bytes.Buffer)
	if err := json.Compact(start, r.Start); err != nil {
		return true
	}
	if err := json.Compact(end, r.End); err != nil {
		return true
	}
	return bytes.Equal(start.Bytes(), end.Bytes())
}
