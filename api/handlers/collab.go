package handlers

import (
	"net/http"

	"github.com/collab-docs/backend/internal/collab"
	"github.com/gin-gonic/gin"
)

// CollabHandler handles WebSocket connections for collaborative editing.
type CollabHandler struct {
	wsHandler *collab.Handler
}

// NewCollabHandler creates a new CollabHandler.
func NewCollabHandler(wsHandler *collab.Handler) *CollabHandler {
	return &CollabHandler{
		wsHandler: wsHandler,
	}
}

// Attach handles WS /api/ws/:id - joins a document room via WebSocket.
// Identity comes from the optional user_id and user_name query parameters.
func (h *CollabHandler) Attach(c *gin.Context) {
	docID := c.Param("id")
	if docID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Document ID is required")
		return
	}

	if err := h.wsHandler.HandleConnection(c.Writer, c.Request, docID); err != nil {
		// Upgrade failed before any room state was touched
		return
	}
}

// RegisterRoutes registers the WebSocket route on a Gin router group.
func (h *CollabHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws/:id", h.Attach)
}
