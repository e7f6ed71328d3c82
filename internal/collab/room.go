package collab

import (
	"sync"
	"time"

	"github.com/collab-docs/backend/internal/model"
)

// Room holds the in-memory collaboration state for one document: member
// connections, last-known content, and per-user cursor and selection state.
//
// All state is guarded by a single per-room mutex so that every mutation and
// the broadcast it triggers are observably atomic to other members. Rooms
// never lock each other.
type Room struct {
	docID string

	mu         sync.RWMutex
	members    map[*Client]struct{}
	content    string
	cursors    map[string]*cursorState
	selections map[string]*selectionState
}

func newRoom(docID, content string) *Room {
	return &Room{
		docID:      docID,
		members:    make(map[*Client]struct{}),
		content:    content,
		cursors:    make(map[string]*cursorState),
		selections: make(map[string]*selectionState),
	}
}

// DocID returns the document id this room serves.
func (r *Room) DocID() string {
	return r.docID
}

// MemberCount returns the number of live connections in the room.
func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Content returns the last-known document content.
func (r *Room) Content() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.content
}

// Users returns identity and join time for every current member.
func (r *Room) Users() []model.UserPresence {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.UserPresence, 0, len(r.members))
	for c := range r.members {
		users = append(users, model.UserPresence{
			UserID:      c.UserID(),
			UserName:    c.DisplayName(),
			ConnectedAt: c.JoinedAt(),
		})
	}
	return users
}

// broadcastLocked queues an event to every member except exclude and returns
// the members whose delivery failed. Callers must hold r.mu.
func (r *Room) broadcastLocked(ev *Event, exclude *Client) []*Client {
	var failed []*Client
	for c := range r.members {
		if c == exclude {
			continue
		}
		if !c.SendEvent(ev) {
			failed = append(failed, c)
		}
	}
	return failed
}

// addMember registers a new connection, streams it the initial snapshot
// (content, then cursors, then selections), and announces it to the other
// members. It returns members whose delivery failed.
func (r *Room) addMember(c *Client) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members[c] = struct{}{}

	content := r.content
	c.SendEvent(&Event{
		Type:        MessageTypeInit,
		Content:     &content,
		ActiveUsers: len(r.members),
	})

	for userID, cur := range r.cursors {
		if userID == c.UserID() {
			continue
		}
		c.SendEvent(&Event{
			Type:     MessageTypeCursorUpdate,
			UserID:   userID,
			UserName: cur.userName,
			Position: cur.position,
			Color:    cur.color,
		})
	}
	for userID, sel := range r.selections {
		c.SendEvent(&Event{
			Type:      MessageTypeSelectionUpdate,
			UserID:    userID,
			UserName:  sel.userName,
			Selection: sel.selection,
			Color:     sel.color,
		})
	}

	return r.broadcastLocked(&Event{
		Type:        MessageTypeUserJoined,
		UserID:      c.UserID(),
		UserName:    c.DisplayName(),
		ActiveUsers: len(r.members),
	}, c)
}

// removeMember evicts a connection, clears its presence state, and notifies
// the remaining members. found is false when the client was not a member
// (already evicted); empty is true when the room has no members left.
func (r *Room) removeMember(c *Client) (failed []*Client, empty, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[c]; !ok {
		return nil, len(r.members) == 0, false
	}
	delete(r.members, c)
	delete(r.cursors, c.UserID())
	delete(r.selections, c.UserID())

	failed = r.broadcastLocked(&Event{
		Type:   MessageTypeCursorRemoved,
		UserID: c.UserID(),
	}, nil)
	failed = append(failed, r.broadcastLocked(&Event{
		Type:        MessageTypeUserLeft,
		UserID:      c.UserID(),
		ActiveUsers: len(r.members),
	}, nil)...)

	return failed, len(r.members) == 0, true
}

// setContent overwrites the document content wholesale and broadcasts the
// update to every member except the sender. applied is false when the sender
// has already left the room: a read pump can dispatch one last frame after
// its connection was evicted, and such stragglers must not mutate state.
func (r *Room) setContent(sender *Client, content string, timestamp *float64) (failed []*Client, applied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[sender]; !ok {
		return nil, false
	}

	r.content = content
	return r.broadcastLocked(&Event{
		Type:      MessageTypeUpdate,
		Content:   &content,
		UserID:    sender.UserID(),
		UserName:  sender.DisplayName(),
		Timestamp: timestamp,
	}, sender), true
}

// updateCursor stores the sender's cursor and broadcasts it to the other
// members. Two connections sharing a user id overwrite each other; last
// update wins.
func (r *Room) updateCursor(sender *Client, position []byte) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A straggler write after leave must not re-insert presence for a
	// departed user; nothing would ever clear it again.
	if _, ok := r.members[sender]; !ok {
		return nil
	}

	color := ColorFor(sender.UserID())
	r.cursors[sender.UserID()] = &cursorState{
		userName:  sender.DisplayName(),
		color:     color,
		position:  position,
		updatedAt: time.Now(),
	}

	return r.broadcastLocked(&Event{
		Type:     MessageTypeCursorUpdate,
		UserID:   sender.UserID(),
		UserName: sender.DisplayName(),
		Position: position,
		Color:    color,
	}, sender)
}

// updateSelection stores or clears the sender's selection. A missing or
// collapsed range (start == end) removes the stored selection; removal
// broadcasts even when nothing was stored.
func (r *Room) updateSelection(sender *Client, selection []byte) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[sender]; !ok {
		return nil
	}

	if selectionCollapsed(selection) {
		delete(r.selections, sender.UserID())
		return r.broadcastLocked(&Event{
			Type:   MessageTypeSelectionRemoved,
			UserID: sender.UserID(),
		}, sender)
	}

	color := ColorFor(sender.UserID())
	r.selections[sender.UserID()] = &selectionState{
		userName:  sender.DisplayName(),
		color:     color,
		selection: selection,
		updatedAt: time.Now(),
	}

	return r.broadcastLocked(&Event{
		Type:      MessageTypeSelectionUpdate,
		UserID:    sender.UserID(),
		UserName:  sender.DisplayName(),
		Selection: selection,
		Color:     color,
	}, sender)
}

// presenceFor reports whether the room currently stores a cursor or a
// selection for the given user id.
func (r *Room) presenceFor(userID string) (cursor, selection bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, cursor = r.cursors[userID]
	_, selection = r.selections[userID]
	return cursor, selection
}

// closeMembers closes every member connection. Used at shutdown.
func (r *Room) closeMembers() {
	r.mu.Lock()
	members := make([]*Client, 0, len(r.members))
	for c := range r.members {
		members = append(members, c)
	}
	r.members = make(map[*Client]struct{})
	r.cursors = make(map[string]*cursorState)
	r.selections = make(map[string]*selectionState)
	r.mu.Unlock()

	for _, c := range members {
		c.Close()
	}
}
