package service

import "errors"

// Error taxonomy shared by every Service implementation.
// Implementations wrap these with %w so callers can use errors.Is.
var (
	// ErrUnauthorized means the token is missing or was rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means the task does not exist on the backend.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the input was rejected.
	ErrValidation = errors.New("validation failed")

	// ErrNetwork means the request never got a response.
	ErrNetwork = errors.New("network error")
)
