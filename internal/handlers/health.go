package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/naccer/portal/backend/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the portal's subsystems.
type HealthHandler struct {
	db       *gorm.DB
	notifier *services.NotificationService
	events   *services.EventHub
	queue    services.Dispatcher
}

func NewHealthHandler(db *gorm.DB, notifier *services.NotificationService, events *services.EventHub, queue services.Dispatcher) *HealthHandler {
	return &HealthHandler{db: db, notifier: notifier, events: events, queue: queue}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	code := http.StatusOK

	dbStatus := "ok"
	if err := h.ping(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async"
	}

	c.JSON(code, gin.H{
		"success": overall == "healthy",
		"status":  overall,
		"service": "naccer-portal",
		"time":    time.Now().UTC(),
		"components": gin.H{
			"database":    dbStatus,
			"queue_mode":  queueMode,
			"email_mode":  h.notifier.Mode(),
			"sse_clients": h.events.ClientCount(),
		},
	})
}

func (h *HealthHandler) ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
