// Package respond writes JSON responses for flow outcomes and errors. Every
// response saves the session first so cookie changes make it into the headers
package respond

import (
	"bitwise74/unmask-api/internal/flow"
	"bitwise74/unmask-api/pkg/middleware"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Outcome(c *gin.Context, status int, out *flow.Outcome) {
	requestID := c.GetString("requestID")

	if err := middleware.SaveSession(c); err != nil {
		Internal(c, err)
		return
	}

	body := gin.H{
		"redirect":  out.Redirect,
		"requestID": requestID,
	}

	if out.Message != "" {
		body["message"] = out.Message
		body["category"] = out.Category
	}

	if out.MailFailed {
		body["mailFailed"] = true
	}

	c.JSON(status, body)
}

// Error answers with a *flow.Error, anything else is an internal error.
// Failed transitions can still change the session so it's saved as well
func Error(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	var fe *flow.Error
	if !errors.As(err, &fe) {
		Internal(c, err)
		return
	}

	if fe.Kind == flow.KindInternal {
		zap.L().Error("Flow failed", zap.Error(fe.Err), zap.String("requestID", requestID))
	}

	if serr := middleware.SaveSession(c); serr != nil {
		Internal(c, serr)
		return
	}

	body := gin.H{
		"error":     fe.Message,
		"kind":      fe.Kind,
		"redirect":  fe.Redirect,
		"requestID": requestID,
	}

	if len(fe.Fields) > 0 {
		body["fields"] = fe.Fields
	}

	c.JSON(fe.Status, body)
}

func Internal(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":     "Internal server error",
		"requestID": requestID,
	})

	zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID))
}

// BadBody answers a request whose body couldn't be decoded
func BadBody(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	c.JSON(http.StatusBadRequest, gin.H{
		"error":     "Invalid request body",
		"requestID": requestID,
	})

	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
}
