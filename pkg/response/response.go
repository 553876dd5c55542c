package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/peerlingo/peerlingo/pkg/apperr"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// Success writes a success envelope and returns it.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
	ctx.JSON(status, resp)
	return resp
}

// Error writes an error envelope and returns it.
func Error[T any](ctx *gin.Context, status int, message string, details interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     details,
	}
	ctx.JSON(status, resp)
	return resp
}

// Abort writes an error envelope and aborts the handler chain (middleware use).
func Abort(ctx *gin.Context, status int, message string, details interface{}) {
	resp := APIResponse[any]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     details,
	}
	ctx.AbortWithStatusJSON(status, resp)
}

// FromError maps the apperr taxonomy onto HTTP statuses. Unclassified errors
// become a generic 500 so internals never leak to the client.
func FromError(ctx *gin.Context, err error) {
	msg := err.Error()
	var details interface{}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		// the field list travels in the error detail, not the message
		msg = ae.Message
		if len(ae.Fields) > 0 {
			details = gin.H{"fields": ae.Fields}
		}
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		Error[any](ctx, http.StatusBadRequest, msg, details)
	case apperr.KindConflict:
		Error[any](ctx, http.StatusConflict, msg, details)
	case apperr.KindAuth:
		Error[any](ctx, http.StatusUnauthorized, msg, details)
	case apperr.KindNotFound:
		Error[any](ctx, http.StatusNotFound, msg, details)
	case apperr.KindDependency:
		Error[any](ctx, http.StatusBadGateway, "upstream dependency unavailable", nil)
	default:
		Error[any](ctx, http.StatusInternalServerError, "internal server error", nil)
	}
}
