package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "finledger/internal/errors"
)

// PipelineAuthMiddleware guards job-runner endpoints with the X-API-Key
// header. With no key configured every call is refused.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			RenderError(c, apperrors.ErrPipelineNotConfigured)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			RenderError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
