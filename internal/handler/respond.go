package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apnisec/backend/internal/apperr"
	"github.com/apnisec/backend/internal/model"
)

// writeError maps a service error onto the HTTP envelope. Unclassified errors
// become a generic 500; their message is logged, never sent to the client.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	appErr := apperr.As(err)
	if appErr == nil {
		logger.Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:      "An unexpected error occurred",
			StatusCode: http.StatusInternalServerError,
		})
		return
	}

	status := apperr.Status(err)
	resp := model.ErrorResponse{
		Error:      appErr.Message,
		StatusCode: status,
		Details:    appErr.Details,
	}

	if appErr.Kind == apperr.KindRateLimit {
		resp.RetryAfter = appErr.RetryAfter
		c.Header("X-RateLimit-Limit", strconv.Itoa(appErr.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(appErr.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(appErr.ResetTime, 10))
		c.Header("Retry-After", strconv.Itoa(appErr.RetryAfter))
	}

	c.JSON(status, resp)
}
