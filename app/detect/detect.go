// Package detect contains the image classification endpoints
package detect

import (
	"bitwise74/unmask-api/app/respond"
	"bitwise74/unmask-api/internal"
	"bitwise74/unmask-api/internal/quota"
	"bitwise74/unmask-api/internal/service"
	"bitwise74/unmask-api/pkg/middleware"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Detect(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	s := middleware.Session(c)

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	upload, err := d.Detector.Detect(c.Request.Context(), s, fh)
	if err != nil {
		var derr *service.DetectError
		if !errors.As(err, &derr) {
			respond.Internal(c, err)
			return
		}

		if serr := middleware.SaveSession(c); serr != nil {
			respond.Internal(c, serr)
			return
		}

		body := gin.H{
			"error":     derr.Error(),
			"requestID": requestID,
		}

		switch {
		case errors.Is(err, quota.ErrExceeded):
			body["quotaExceeded"] = true
			body["redirect"] = "/signup"
		case errors.Is(err, service.ErrQueueFull):
			body["error"] = "The server is busy, please try again in a moment"
		case derr.Status >= http.StatusInternalServerError:
			body["error"] = "Failed to analyze image"
			zap.L().Error("Detection failed", zap.Error(err), zap.String("requestID", requestID))
		}

		c.JSON(derr.Status, body)
		return
	}

	if err := middleware.SaveSession(c); err != nil {
		respond.Internal(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"upload":         upload,
		"message":        fmt.Sprintf("Result: %s (%.2f%%)", upload.Label, upload.Confidence),
		"guestRemaining": d.Quota.Remaining(s),
		"requestID":      requestID,
	})
}
