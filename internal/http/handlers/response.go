// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints:
// the structured error envelope, the mapping from service and policy errors to
// HTTP statuses, and small helpers for success responses.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting, so 5xx responses are
//     logged with request context.
//   - `failErr()` translates a returned error into status, code and field.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "invalid_transition",
//	  "message": "driverId is required to move a request to in_progress"
//	}
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-supply-backend/internal/domain"
	"github.com/tbourn/go-supply-backend/internal/http/middleware"
	"github.com/tbourn/go-supply-backend/internal/lifecycle"
	"github.com/tbourn/go-supply-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"validation_failed"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"quantity must be at least 1"`
	// Offending input field for validation failures
	Field string `json:"field,omitempty" example:"quantity"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	failField(c, status, code, msg, "")
}

func failField(c *gin.Context, status int, code, msg, field string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
		Field:     field,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps err onto the error envelope.
//
//	*domain.ValidationError          400 validation_failed (+ field)
//	ErrUserNotFound/ErrRequestNotFound 404 not_found
//	ErrUnknownActor                  401 unauthorized
//	lifecycle.ErrUnauthorized        403 forbidden
//	lifecycle.ErrInvalidTransition   400 invalid_transition
//	lifecycle.ErrTerminalState       400 terminal_state
//	lifecycle.ErrImmutableAfterDispatch 400 immutable_after_dispatch
//	ErrDuplicateUsername             409 duplicate_username
//	ErrStaleRequest                  409 stale_request
//	anything else                    500 internal_error
func failErr(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		failField(c, http.StatusBadRequest, ErrCodeValidation, ve.Message, ve.Field)
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrRequestNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrUnknownActor):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.Is(err, lifecycle.ErrUnauthorized):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		fail(c, http.StatusBadRequest, ErrCodeInvalidTransition, err.Error())
	case errors.Is(err, lifecycle.ErrTerminalState):
		fail(c, http.StatusBadRequest, ErrCodeTerminalState, err.Error())
	case errors.Is(err, lifecycle.ErrImmutableAfterDispatch):
		fail(c, http.StatusBadRequest, ErrCodeImmutableAfterDispatch, err.Error())
	case errors.Is(err, services.ErrDuplicateUsername):
		fail(c, http.StatusConflict, ErrCodeDuplicateUsername, err.Error())
	case errors.Is(err, services.ErrStaleRequest):
		fail(c, http.StatusConflict, ErrCodeStaleRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// failBind reports a request body that could not be decoded. Wrong JSON
// types and malformed dates name the offending field.
func failBind(c *gin.Context, err error) {
	var (
		ve *domain.ValidationError
		te *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &ve):
		failField(c, http.StatusBadRequest, ErrCodeValidation, ve.Message, ve.Field)
	case errors.As(err, &te) && te.Field != "":
		failField(c, http.StatusBadRequest, ErrCodeValidation, fmt.Sprintf("%s must be a %s", te.Field, jsonKind(te.Type.Kind())), te.Field)
	case errors.Is(err, domain.ErrInvalidDate):
		failField(c, http.StatusBadRequest, ErrCodeValidation, "deliveryDate must be a YYYY-MM-DD date", "deliveryDate")
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
	}
}

func jsonKind(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	default:
		return "string"
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
