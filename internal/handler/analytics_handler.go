package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/service"
)

type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	logger    *zap.Logger
}

func NewAnalyticsHandler(analytics *service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, logger: logger}
}

// Stats handles GET /api/analytics/stats.
func (h *AnalyticsHandler) Stats(c *gin.Context) {
	stats, err := h.analytics.Stats(c.Request.Context(), actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ChartData handles GET /api/analytics/chart-data.
func (h *AnalyticsHandler) ChartData(c *gin.Context) {
	data, err := h.analytics.ChartData(c.Request.Context(), actorID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
