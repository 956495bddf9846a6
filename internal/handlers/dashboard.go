package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/naccer/portal/backend/internal/services"
	"github.com/naccer/portal/backend/pkg/response"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetStats returns proposal counts over the caller's visible set
// GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context(), principal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", gin.H{"stats": stats})
}
