package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"StockLens/internal/session"
)

type DashboardHandler struct {
	store *session.Store
}

func NewDashboardHandler(store *session.Store) *DashboardHandler {
	return &DashboardHandler{store: store}
}

func (h *DashboardHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// Refresh runs a full refresh and returns the resulting snapshot.
func (h *DashboardHandler) Refresh(c *gin.Context) {
	h.store.RefreshAll(c.Request.Context())
	c.JSON(http.StatusOK, h.store.Snapshot())
}
