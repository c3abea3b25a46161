// internal/interfaces/http/handlers/respond.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// statusFor maps application error kinds to HTTP status codes
func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindInvalidTransition, apperror.KindConflict, apperror.KindInsufficientStock:
		return http.StatusConflict
	case apperror.KindUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a service error as a JSON response. Internal causes
// are never echoed to the client.
func respondError(c *gin.Context, err error) {
	appErr, ok := apperror.AsError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  string(apperror.KindInternal),
		})
		return
	}

	body := gin.H{
		"error": appErr.Message,
		"code":  string(appErr.Kind),
	}
	if len(appErr.Fields) > 0 {
		body["details"] = appErr.Fields
	}
	if appErr.Kind == apperror.KindInternal {
		body["error"] = "Internal server error"
	}

	c.JSON(statusFor(appErr.Kind), body)
}

// respondBindError writes a request binding failure
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"code":    string(apperror.KindValidation),
		"details": err.Error(),
	})
}
