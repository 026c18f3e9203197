package auth

import (
	"bitwise74/unmask-api/app/respond"
	"bitwise74/unmask-api/internal"
	"bitwise74/unmask-api/internal/flow"
	"bitwise74/unmask-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

func ForgotPassword(c *gin.Context, d *internal.Deps) {
	var form flow.ForgotForm
	if err := c.ShouldBind(&form); err != nil {
		respond.BadBody(c, err)
		return
	}

	out, err := d.Flow.ForgotPassword(c.Request.Context(), middleware.Session(c), form)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.Outcome(c, http.StatusOK, out)
}

func ResetPassword(c *gin.Context, d *internal.Deps) {
	var form flow.ResetForm
	if err := c.ShouldBind(&form); err != nil {
		respond.BadBody(c, err)
		return
	}

	out, err := d.Flow.ResetPassword(c.Request.Context(), middleware.Session(c), form)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.Outcome(c, http.StatusOK, out)
}
