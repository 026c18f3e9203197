package guest

import (
	"bitwise74/unmask-api/app/respond"
	"bitwise74/unmask-api/internal"
	"bitwise74/unmask-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Start gives the session a guest identity so it can run a limited number
// of detections without an account
func Start(c *gin.Context, d *internal.Deps) {
	out := d.Flow.StartGuest(c.Request.Context(), middleware.Session(c))
	respond.Outcome(c, http.StatusOK, out)
}
