// Package apperrors defines the error taxonomy shared by the matchmaking
// core. Handlers map these to HTTP status codes; everything that does not
// match is treated as an unexpected failure (500).
package apperrors

import "errors"

var (
	// ErrInvalidInput marks malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a missing suggestion, user or chat.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyProcessed marks a suggestion that is no longer pending.
	ErrAlreadyProcessed = errors.New("already processed")

	// ErrUnauthorized marks a failed authentication or authorization check.
	ErrUnauthorized = errors.New("unauthorized")
)
