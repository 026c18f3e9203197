// Package middleware contains any custom middleware used in the app
package middleware

import (
	"bitwise74/unmask-api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRequestIDMiddleware returns a new middleware function that generates a request ID for
// each incoming request and sets it as requestID
func NewRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := util.NewID(10)
		if err != nil {
			zap.L().Error("Failed to generate request ID", zap.Error(err))
		}

		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
