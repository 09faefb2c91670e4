// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase snake_case strings that clients branch on. Each
// error response carries one of them next to the HTTP status, the
// human-readable message and, for validation failures, the offending field.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "validation_failed",
//	  "message": "quantity must be at least 1",
//	  "field": "quantity"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeValidation             = "validation_failed"
	ErrCodeInvalidTransition      = "invalid_transition"
	ErrCodeTerminalState          = "terminal_state"
	ErrCodeImmutableAfterDispatch = "immutable_after_dispatch"
	ErrCodeDuplicateUsername      = "duplicate_username"
	ErrCodeStaleRequest           = "stale_request"
	ErrCodeMethodNotAllowed       = "method_not_allowed"

	// Written by middleware, listed for clients.
	ErrCodeRateLimited       = "too_many_requests"
	ErrCodeBadIdempotencyKey = "bad_idempotency_key"
)
