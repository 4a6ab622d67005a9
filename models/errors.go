package models

import "errors"

// Error taxonomy shared by every layer. Callers wrap these with %w and the
// HTTP boundary classifies them with errors.Is; anything else is internal.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)
