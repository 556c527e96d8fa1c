package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	integrationapp "github.com/storepos/backend/internal/application/integration"
	"github.com/storepos/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// SettingsManager shows and changes the upstream connection
type SettingsManager interface {
	Get() integrationapp.SettingsResponse
	UpdateUpstream(req integrationapp.UpdateUpstreamRequest) (integrationapp.SettingsResponse, error)
	TestConnection(ctx context.Context) (integrationapp.ConnectionTestResponse, error)
}

// SettingsHandler handles settings HTTP requests. Routes are restricted to
// admins and managers at the router.
type SettingsHandler struct {
	BaseHandler
	settings SettingsManager
	logger   *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings SettingsManager, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{settings: settings, logger: logger}
}

// Get returns the running settings with credentials masked.
// GET /settings
func (h *SettingsHandler) Get(c *gin.Context) {
	h.Success(c, h.settings.Get())
}

// UpdateUpstream replaces the commerce platform connection.
// PUT /settings/upstream
func (h *SettingsHandler) UpdateUpstream(c *gin.Context) {
	var req integrationapp.UpdateUpstreamRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.settings.UpdateUpstream(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if actor := middleware.GetActor(c); actor != nil {
		h.logger.Info("Upstream settings changed",
			zap.String("by", actor.Username),
			zap.String("store_url", resp.StoreURL),
		)
	}
	h.Success(c, resp)
}

// TestConnection makes one round trip to the commerce platform.
// POST /settings/test-connection
func (h *SettingsHandler) TestConnection(c *gin.Context) {
	resp, err := h.settings.TestConnection(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
