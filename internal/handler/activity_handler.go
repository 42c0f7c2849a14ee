package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/service"
)

type ActivityHandler struct {
	activity *service.ActivityService
	logger   *zap.Logger
}

func NewActivityHandler(activity *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activity: activity, logger: logger}
}

// List handles GET /api/activity.
func (h *ActivityHandler) List(c *gin.Context) {
	entries, err := h.activity.Recent(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
