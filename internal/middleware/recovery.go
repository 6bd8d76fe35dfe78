package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/labhubhq/labhub/pkg/errors"
	"github.com/labhubhq/labhub/pkg/logger"
	"github.com/labhubhq/labhub/pkg/response"
)

// Recovery converts panics into the standard error envelope and logs them.
// Panic values never reach clients.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic recovered",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
				)
				response.Error(c, apperrors.ErrInternalServer)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown routes with the same envelope as every
// other error so clients need a single decoder.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, apperrors.New(
		"ROUTE_NOT_FOUND",
		fmt.Sprintf("route %s not found", c.Request.URL.Path),
		http.StatusNotFound,
	))
}
