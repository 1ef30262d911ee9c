package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// statusFor maps domain error kinds to HTTP status codes. State-machine
// rejections answer 4xx so scanners retry correctly; infrastructure
// failures answer 5xx.
func statusFor(err error) int {
	switch shared.KindOf(err) {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindNotAssigned:
		return http.StatusForbidden
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindInvalidState:
		return http.StatusConflict
	case shared.KindCapacityExhausted:
		return http.StatusUnprocessableEntity
	case shared.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	if kind := shared.KindOf(err); kind != "" {
		body["kind"] = string(kind)
	}
	if status >= 500 {
		// Do not leak internals on server errors
		body["error"] = http.StatusText(status)
	}
	c.JSON(status, body)
}
