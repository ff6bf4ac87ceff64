package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/urna-api/internal/notify"
	"github.com/gravadigital/urna-api/internal/store"
)

// SyncHandler reports whether the latest changes reached the persistence gateway
type SyncHandler struct {
	store *store.Store
	hub   *notify.Hub
}

func NewSyncHandler(s *store.Store, hub *notify.Hub) *SyncHandler {
	return &SyncHandler{store: s, hub: hub}
}

// Status handles GET /api/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.SyncStatus())
}

// Stream handles GET /api/sync/ws
func (h *SyncHandler) Stream(c *gin.Context) {
	h.hub.ServeHTTP(c.Writer, c.Request)
}
