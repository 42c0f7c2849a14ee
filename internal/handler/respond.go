package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/apperr"
)

// respondError maps the error taxonomy onto HTTP statuses. Storage
// failures and anything unclassified become a generic 500; the cause
// stays in the logs only.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": ve.Fields})
		return
	}

	var ae *apperr.AuthorizationError
	if errors.As(err, &ae) {
		c.JSON(http.StatusForbidden, gin.H{"message": ae.Reason})
		return
	}

	var ne *apperr.NotFoundError
	if errors.As(err, &ne) {
		c.JSON(http.StatusNotFound, gin.H{"message": title(ne.Resource) + " not found"})
		return
	}

	logger.Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
}

func title(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

// actorID pulls the authenticated user id set by the auth middleware.
func actorID(c *gin.Context) string {
	return c.GetString("user_id")
}
