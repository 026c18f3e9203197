package detect

import (
	"bitwise74/unmask-api/app/respond"
	"bitwise74/unmask-api/internal"
	"bitwise74/unmask-api/pkg/middleware"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxHistory = 100

func History(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	limit := maxHistory
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid limit",
				"requestID": requestID,
			})
			return
		}

		limit = min(n, maxHistory)
	}

	uploads, err := d.Detector.History(c.Request.Context(), middleware.Session(c), limit)
	if err != nil {
		respond.Internal(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploads":   uploads,
		"requestID": requestID,
	})
}
