// Package services defines the business logic for users and material
// requests. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Field-level problems are reported as
// *domain.ValidationError, and lifecycle rejections as *lifecycle.Error.
package services

import "errors"

var (
	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrRequestNotFound indicates that the referenced request does not exist.
	ErrRequestNotFound = errors.New("request not found")

	// ErrDuplicateUsername is returned when creating a user whose username is
	// already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrStaleRequest is returned when a request changed status between the
	// policy check and the write. The caller should re-read and retry.
	ErrStaleRequest = errors.New("request was modified concurrently")

	// ErrUnknownActor is returned when the acting identity does not resolve to
	// a stored user.
	ErrUnknownActor = errors.New("acting user not found")
)
