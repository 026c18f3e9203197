// Package root contains endpoints that don't belong to any feature
package root

import (
	"bitwise74/unmask-api/internal"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Heartbeat reports whether the server and its database are reachable
func Heartbeat(c *gin.Context, d *internal.Deps) {
	sqlDB, err := d.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}

	if err != nil {
		zap.L().Error("Heartbeat failed to reach the database", zap.Error(err))
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.Header("X-Queue-Running", strconv.Itoa(d.Queue.Running()))
	c.Status(http.StatusOK)
}
