package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"manoya/internal/domain"
	"manoya/internal/service"
)

// DashboardHandler sirve el panel presidencial. Todas las rutas pasan por
// JWTAuthMiddleware.
type DashboardHandler struct {
	logger    *zap.Logger
	dashboard *service.DashboardService
}

func NewDashboardHandler(logger *zap.Logger, dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{logger: logger, dashboard: dashboard}
}

// Stats maneja GET /admin/stats.
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "dashboard stats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Tick maneja POST /admin/tick: un paso de la simulacion de agentes.
func (h *DashboardHandler) Tick(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	action, err := h.dashboard.Tick(c.Request.Context(), claims.SessionID, claims.Seed)
	if err != nil {
		writeError(c, h.logger, "dashboard tick", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": action})
}

// Campaign maneja POST /admin/campaign.
func (h *DashboardHandler) Campaign(c *gin.Context) {
	var req struct {
		Target domain.CampaignTarget `json:"target" binding:"required"`
		Goal   string                `json:"goal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid campaign request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	strategy, err := h.dashboard.Campaign(c.Request.Context(), req.Target, req.Goal)
	if err != nil {
		writeError(c, h.logger, "dashboard campaign", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategy": strategy})
}

// Logs maneja GET /admin/logs.
func (h *DashboardHandler) Logs(c *gin.Context) {
	logs, err := h.dashboard.Logs(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "dashboard logs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
