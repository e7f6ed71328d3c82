package handlers

import (
	"net/http"
	"time"

	"github.com/collab-docs/backend/internal/collab"
	"github.com/collab-docs/backend/internal/model"
	"github.com/gin-gonic/gin"
)

// PresenceHandler serves read-only presence queries from in-memory room
// state.
type PresenceHandler struct {
	registry *collab.Registry
}

// NewPresenceHandler creates a new PresenceHandler.
func NewPresenceHandler(registry *collab.Registry) *PresenceHandler {
	return &PresenceHandler{
		registry: registry,
	}
}

// UserResponse represents one connected user in API responses.
type UserResponse struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	ConnectedAt string `json:"connected_at"`
}

// ActiveUsers handles GET /api/documents/:id/active-users.
func (h *PresenceHandler) ActiveUsers(c *gin.Context) {
	docID := c.Param("id")
	if docID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Document ID is required")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"doc_id":       docID,
		"active_users": h.registry.ActiveUsers(docID),
	})
}

// Users handles GET /api/documents/:id/users - lists currently connected
// users for a document.
func (h *PresenceHandler) Users(c *gin.Context) {
	docID := c.Param("id")
	if docID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Document ID is required")
		return
	}

	users := toUserResponses(h.registry.Users(docID))
	c.JSON(http.StatusOK, gin.H{
		"doc_id":      docID,
		"users":       users,
		"total_users": len(users),
	})
}

// toUserResponses converts presence records to API responses.
func toUserResponses(users []model.UserPresence) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserResponse{
			UserID:      u.UserID,
			UserName:    u.UserName,
			ConnectedAt: u.ConnectedAt.Format(time.RFC3339),
		})
	}
	return out
}

// RegisterRoutes registers the presence query routes on a Gin router group.
func (h *PresenceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/:id/active-users", h.ActiveUsers)
	rg.GET("/documents/:id/users", h.Users)
}
