package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"Candor/services/game"
)

// EngineErrorStatus maps engine error kinds onto HTTP statuses. Unknown
// errors read as internal.
func EngineErrorStatus(err error) int {
	kind, ok := game.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindPreconditionFailed:
		return http.StatusForbidden
	case game.KindInvalidArgument:
		return http.StatusBadRequest
	case game.KindConflict:
		return http.StatusConflict
	case game.KindInvalidSession:
		return http.StatusUnauthorized
	case game.KindExhaustedRetries:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteEngineError renders an engine failure as the standard error body.
func WriteEngineError(c *gin.Context, err error) {
	var engineErr *game.Error
	if errors.As(err, &engineErr) {
		c.JSON(EngineErrorStatus(err), gin.H{
			"error": engineErr.Detail,
			"kind":  engineErr.Kind.String(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
