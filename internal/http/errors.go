package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindful/internal/core"
	"mindful/internal/log"
)

type errorResponse struct {
	Errors []string `json:"errors"`
}

// writeError maps service errors onto HTTP statuses. Unknown errors are logged and
// reported as 500 without details.
func writeError(c *gin.Context, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Errors: verr.Problems})
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Errors: []string{err.Error()}})
	case errors.Is(err, core.ErrPeriodClosed), errors.Is(err, core.ErrDuplicateSpend):
		c.JSON(http.StatusConflict, errorResponse{Errors: []string{err.Error()}})
	case errors.Is(err, core.ErrWalletNotInPeriod):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Errors: []string{err.Error()}})
	default:
		_ = c.Error(err)
		slog.ErrorContext(c.Request.Context(), "Unexpected error",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldMethod, c.Request.Method,
			log.FieldPath, c.Request.URL.Path,
			log.FieldError, err)
		c.JSON(http.StatusInternalServerError, errorResponse{Errors: []string{"Internal server error"}})
	}
}

// writeBadRequest reports a body or query that could not be parsed.
func writeBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Errors: []string{msg}})
}

// bindJSON decodes the body into v, answering 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeBadRequest(c, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}
