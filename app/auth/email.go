package auth

import (
	"bitwise74/unmask-api/app/respond"
	"bitwise74/unmask-api/internal"
	"bitwise74/unmask-api/internal/flow"
	"bitwise74/unmask-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

func ChangeEmail(c *gin.Context, d *internal.Deps) {
	var form flow.EmailChangeForm
	if err := c.ShouldBind(&form); err != nil {
		respond.BadBody(c, err)
		return
	}

	out, err := d.Flow.ChangeEmail(c.Request.Context(), middleware.Session(c), form)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.Outcome(c, http.StatusOK, out)
}
