package service

import "errors"

// Error taxonomy shared by the HTTP handlers and the realtime relay.
// Anything not matching one of these is an internal failure.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
)
