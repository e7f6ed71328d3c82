package collab

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/collab-docs/backend/internal/model"
	"github.com/collab-docs/backend/pkg/metrics"
)

// Registry owns the set of active document rooms. A room is created lazily
// on the first join for a document and dropped, with all of its state, when
// the last member leaves.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	// onContentChange fires after a content update has been applied and
	// broadcast; onRoomClosed fires with the final content when a room is
	// torn down. Both run outside room locks.
	onContentChange func(docID, content string)
	onRoomClosed    func(docID, content string)
}

// RegistryConfig holds the persistence hooks for a Registry.
type RegistryConfig struct {
	OnContentChange func(docID, content string)
	OnRoomClosed    func(docID, content string)
}

// NewRegistry creates an empty room registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{
		rooms:           make(map[string]*Room),
		onContentChange: cfg.OnContentChange,
		onRoomClosed:    cfg.OnRoomClosed,
	}
}

// Join adds a client to the room for its document, creating the room with
// initialContent if it does not exist yet. The new member receives the
// current snapshot and the others a user_joined announcement.
func (reg *Registry) Join(c *Client, initialContent string) {
	// The registry lock spans addMember so that dropIfEmpty, which checks
	// emptiness under the same lock, can never observe a room that was
	// looked up here but not yet populated and drop it out from under the
	// joiner. Joins therefore serialize across rooms; message traffic does
	// not, because the per-room operations below only take room locks. The
	// member enqueues inside addMember are non-blocking, so the critical
	// section stays short.
	reg.mu.Lock()
	room, ok := reg.rooms[c.DocID()]
	if !ok {
		room = newRoom(c.DocID(), initialContent)
		reg.rooms[c.DocID()] = room
		metrics.ActiveRooms.Set(float64(len(reg.rooms)))
	}
	failed := room.addMember(c)
	metrics.ActiveConnections.Inc()
	reg.mu.Unlock()

	log.Printf("User %s joined document %s (%d connected)", c.UserID(), c.DocID(), room.MemberCount())
	reg.evict(failed)
}

// Leave removes a client from its room, clears its presence state, notifies
// the remaining members, and drops the room when it becomes empty. It is
// idempotent: leaving twice is a no-op.
func (reg *Registry) Leave(c *Client) {
	failed, left := reg.leave(c)
	if left {
		log.Printf("User %s left document %s", c.UserID(), c.DocID())
	}
	reg.evict(failed)
}

func (reg *Registry) leave(c *Client) (failed []*Client, found bool) {
	reg.mu.Lock()
	room, ok := reg.rooms[c.DocID()]
	reg.mu.Unlock()
	if !ok {
		return nil, false
	}

	failed, empty, found := room.removeMember(c)
	if !found {
		return failed, false
	}

	c.Close()
	metrics.ActiveConnections.Dec()

	if empty {
		reg.dropIfEmpty(room)
	}
	return failed, true
}

// dropIfEmpty removes the room from the registry when it still has no
// members. A concurrent join between the empty observation and this call
// keeps the room alive.
func (reg *Registry) dropIfEmpty(room *Room) {
	reg.mu.Lock()
	current, ok := reg.rooms[room.DocID()]
	if !ok || current != room || room.MemberCount() != 0 {
		reg.mu.Unlock()
		return
	}
	delete(reg.rooms, room.DocID())
	metrics.ActiveRooms.Set(float64(len(reg.rooms)))
	reg.mu.Unlock()

	log.Printf("Document %s has no connections, dropping room", room.DocID())
	if reg.onRoomClosed != nil {
		reg.onRoomClosed(room.DocID(), room.Content())
	}
}

// evict runs the implicit-disconnect path for members whose delivery failed
// during a broadcast. Evicting one member may fail delivery to another, so
// this drains a worklist.
func (reg *Registry) evict(failed []*Client) {
	for len(failed) > 0 {
		c := failed[0]
		failed = failed[1:]

		more, found := reg.leave(c)
		if found {
			log.Printf("Dropping unresponsive connection for user %s on document %s", c.UserID(), c.DocID())
		}
		failed = append(failed, more...)
	}
}

// UpdateContent overwrites the room content and broadcasts the update to the
// other members.
func (reg *Registry) UpdateContent(c *Client, content string, timestamp *float64) error {
	room, err := reg.Room(c.DocID())
	if err != nil {
		return err
	}

	failed, applied := room.setContent(c, content, timestamp)
	reg.evict(failed)

	if applied && reg.onContentChange != nil {
		reg.onContentChange(c.DocID(), content)
	}
	return nil
}

// UpdateCursor stores the sender's cursor position and broadcasts it to the
// other members.
func (reg *Registry) UpdateCursor(c *Client, position json.RawMessage) error {
	room, err := reg.Room(c.DocID())
	if err != nil {
		return err
	}
	reg.evict(room.updateCursor(c, position))
	return nil
}

// UpdateSelection stores or clears the sender's selection and broadcasts the
// change to the other members.
func (reg *Registry) UpdateSelection(c *Client, selection json.RawMessage) error {
	room, err := reg.Room(c.DocID())
	if err != nil {
		return err
	}
	reg.evict(room.updateSelection(c, selection))
	return nil
}

// Room returns the active room for a document.
func (reg *Registry) Room(docID string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[docID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room, nil
}

// ActiveUsers returns the number of live connections for a document. A
// document with no room reports zero.
func (reg *Registry) ActiveUsers(docID string) int {
	room, err := reg.Room(docID)
	if err != nil {
		return 0
	}
	return room.MemberCount()
}

// Users returns identity and join time for every connection on a document.
func (reg *Registry) Users(docID string) []model.UserPresence {
	room, err := reg.Room(docID)
	if err != nil {
		return nil
	}
	return room.Users()
}

// RoomCount returns the number of active rooms.
func (reg *Registry) RoomCount() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Close tears down every room and connection. Used at shutdown.
func (reg *Registry) Close() {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.rooms = make(map[string]*Room)
	metrics.ActiveRooms.Set(0)
	reg.mu.Unlock()

	for _, room := range rooms {
		if reg.onRoomClosed != nil {
			reg.onRoomClosed(room.DocID(), room.Content())
		}
		room.closeMembers()
	}
}
