package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SystemHandler struct {
	db         *gorm.DB
	terminalID string
}

func NewSystemHandler(db *gorm.DB, terminalID string) *SystemHandler {
	return &SystemHandler{db: db, terminalID: terminalID}
}

// GET /health reports whether the database answers, along with the terminal id
// events from this host are tagged with.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "online", http.StatusOK
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "terminal_id": h.terminalID})
}
