package auth

import (
	"bitwise74/unmask-api/app/respond"
	"bitwise74/unmask-api/internal"
	"bitwise74/unmask-api/internal/flow"
	"bitwise74/unmask-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SignIn(c *gin.Context, d *internal.Deps) {
	var form flow.SignInForm
	if err := c.ShouldBind(&form); err != nil {
		respond.BadBody(c, err)
		return
	}

	out, err := d.Flow.SignIn(c.Request.Context(), middleware.Session(c), form)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.Outcome(c, http.StatusOK, out)
}

func SignOut(c *gin.Context, d *internal.Deps) {
	out := d.Flow.SignOut(c.Request.Context(), middleware.Session(c))
	respond.Outcome(c, http.StatusOK, out)
}

// Me returns the state of the current session
func Me(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	st, err := d.Flow.Status(c.Request.Context(), middleware.Session(c))
	if err != nil {
		respond.Error(c, err)
		return
	}

	if err := middleware.SaveSession(c); err != nil {
		respond.Internal(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    st,
		"requestID": requestID,
	})
}
