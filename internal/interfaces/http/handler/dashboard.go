package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/storepos/backend/internal/application/report"
)

// StatsProvider computes the dashboard figures
type StatsProvider interface {
	Stats(ctx context.Context) (*report.DashboardStats, error)
}

// DashboardHandler serves the till dashboard
type DashboardHandler struct {
	BaseHandler
	stats StatsProvider
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(stats StatsProvider) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

// Stats returns today's sales, pending sync and low stock counts.
// GET /dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
