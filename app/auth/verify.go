package auth

import (
	"bitwise74/unmask-api/app/respond"
	"bitwise74/unmask-api/internal"
	"bitwise74/unmask-api/internal/flow"
	"bitwise74/unmask-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Verify(c *gin.Context, d *internal.Deps) {
	var form flow.VerifyForm
	if err := c.ShouldBind(&form); err != nil {
		respond.BadBody(c, err)
		return
	}

	out, err := d.Flow.Verify(c.Request.Context(), middleware.Session(c), form)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.Outcome(c, http.StatusOK, out)
}

func Resend(c *gin.Context, d *internal.Deps) {
	out, err := d.Flow.Resend(c.Request.Context(), middleware.Session(c))
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.Outcome(c, http.StatusOK, out)
}
