// Package auth contains the account endpoints: signup, sign in, email
// verification, password reset and email change
package auth

import (
	"bitwise74/unmask-api/app/respond"
	"bitwise74/unmask-api/internal"
	"bitwise74/unmask-api/internal/flow"
	"bitwise74/unmask-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Signup(c *gin.Context, d *internal.Deps) {
	var form flow.SignupForm
	if err := c.ShouldBind(&form); err != nil {
		respond.BadBody(c, err)
		return
	}

	out, err := d.Flow.Signup(c.Request.Context(), middleware.Session(c), form)
	if err != nil {
		respond.Error(c, err)
		return
	}

	status := http.StatusOK
	if out.Redirect == flow.RedirectVerify {
		status = http.StatusCreated
	}

	respond.Outcome(c, status, out)
}
