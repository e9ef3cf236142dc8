package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/BerylCAtieno/state-analysis-gateway/internal/models"
	"github.com/gin-gonic/gin"
)

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				ctx := c.Request.Context()
				stack := string(debug.Stack())

				slog.ErrorContext(ctx, "panic recovered",
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", stack,
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
					Error: models.InternalErrorMessage,
				})
			}
		}()
		c.Next()
	}
}
