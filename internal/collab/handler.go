package collab

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/collab-docs/backend/pkg/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking in production
		return true
	},
}

// Handler handles WebSocket connections for collaborative editing sessions.
type Handler struct {
	registry *Registry
	service  *Service
}

// NewHandler creates a new WebSocket handler. service may be nil, in which
// case rooms open with empty content and nothing is persisted.
func NewHandler(registry *Registry, service *Service) *Handler {
	return &Handler{
		registry: registry,
		service:  service,
	}
}

// Registry returns the room registry backing this handler.
func (h *Handler) Registry() *Registry {
	return h.registry
}

// HandleConnection upgrades an HTTP request to a WebSocket connection and
// joins it to the room for docID. Identity comes from the user_id and
// user_name query parameters; absent values are synthesized.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request, docID string) error {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = fmt.Sprintf("anonymous_%d", time.Now().Unix())
	}
	userName := r.URL.Query().Get("user_name")
	if userName == "" {
		userName = "Anonymous"
	}

	// Hydrate content before touching any room state, so an upgrade or
	// load failure leaves no partial membership behind.
	initialContent := ""
	if h.service != nil {
		content, err := h.service.LoadContent(r.Context(), docID)
		if err != nil {
			log.Printf("Failed to load content for document %s: %v", docID, err)
		} else {
			initialContent = content
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, docID, userID, userName)
	h.registry.Join(client, initialContent)

	go h.writePump(client)
	go h.readPump(client)

	return nil
}

// readPump reads frames from the WebSocket connection and dispatches them
// until the transport fails, then runs the leave teardown.
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.registry.Leave(client)
		client.Conn().Close()
	}()

	client.Conn().SetReadLimit(maxMessageSize)
	client.Conn().SetReadDeadline(time.Now().Add(pongWait))
	client.Conn().SetPongHandler(func(string) error {
		client.Conn().SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.Conn().ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Invalid frame from user %s: %v", client.UserID(), err)
			client.SendEvent(&Event{Type: MessageTypeError, Message: "Invalid JSON format"})
			continue
		}

		if err := h.route(client, &msg); err != nil {
			log.Printf("Failed to handle %s message from user %s: %v", msg.Type, client.UserID(), err)
			client.SendEvent(&Event{Type: MessageTypeError, Message: "Internal server error"})
		}
	}
}

// route dispatches a decoded message to the matching room operation.
// Unrecognized types are logged and ignored.
func (h *Handler) route(client *Client, msg *Message) error {
	switch msg.Type {
	case MessageTypeUpdate, MessageTypeCursor, MessageTypeSelection, MessageTypePing:
		metrics.MessagesTotal.WithLabelValues(string(msg.Type)).Inc()
	default:
		// Client-supplied type strings must not become label values
		metrics.MessagesTotal.WithLabelValues("unknown").Inc()
	}

	switch msg.Type {
	case MessageTypeUpdate:
		return h.registry.UpdateContent(client, msg.Content, msg.Timestamp)
	case MessageTypeCursor:
		return h.registry.UpdateCursor(client, msg.Position)
	case MessageTypeSelection:
		return h.registry.UpdateSelection(client, msg.Selection)
	case MessageTypePing:
		client.SendEvent(&Event{Type: MessageTypePong})
		return nil
	default:
		log.Printf("Unhandled message type %q from user %s", msg.Type, client.UserID())
		return nil
	}
}

// writePump pumps queued events to the WebSocket connection and keeps the
// transport alive with control pings.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn().Close()
	}()

	for {
		select {
		case data, ok := <-client.SendChan():
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The room closed the client
				client.Conn().WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One event per frame so the frontend can JSON.parse each
			if err := client.Conn().WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

			n := len(client.SendChan())
			for i := 0; i < n; i++ {
				queued := <-client.SendChan()
				client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.Conn().WriteMessage(websocket.TextMessage, queued); err != nil {
					return
				}
			}
		case <-ticker.C:
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn().WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SetCheckOrigin sets a custom origin checker for the WebSocket upgrader.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}
