package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-boards/model"
	"github.com/sheikhrachel/go-gol-boards/service"
	"github.com/sheikhrachel/go-gol-boards/storage"
)

// errBadRequest marks request payloads that could not be decoded
var errBadRequest = errors.New("malformed request")

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Errors []string `json:"errors"`
}

// statusFor maps workflow errors to HTTP status codes
func statusFor(err error) int {
	var unstable *service.UnstableBoardError
	var invalid validator.ValidationErrors
	switch {
	case errors.As(err, &invalid),
		errors.Is(err, errBadRequest),
		errors.Is(err, model.ErrInvalidGridDimension):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrBoardNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrConflict),
		errors.Is(err, model.ErrDuplicateGenerationNumber):
		return http.StatusConflict
	case errors.As(err, &unstable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func messagesFor(err error, status int) []string {
	var invalid validator.ValidationErrors
	switch {
	case errors.As(err, &invalid):
		return describe(invalid)
	case errors.Is(err, errBadRequest):
		return []string{err.Error()}
	case status == http.StatusInternalServerError:
		return []string{"internal server error"}
	case status == http.StatusNotFound:
		return []string{service.ErrBoardNotFound.Error()}
	default:
		return []string{errors.Cause(err).Error()}
	}
}

// ErrorHandler renders the last error a handler attached with c.Error
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		status := statusFor(last.Err)
		if status == http.StatusInternalServerError {
			logger.Error("request failed", "path", c.FullPath(), "error", last.Err)
		} else {
			logger.Debug("request rejected", "path", c.FullPath(), "status", status, "error", last.Err)
		}
		c.JSON(status, ErrorResponse{Errors: messagesFor(last.Err, status)})
	}
}
