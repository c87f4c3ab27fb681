package request

import "errors"

var (
	// ErrInternalServer is returned to the client when a handler panics or fails
	// in a way that should not be exposed.
	ErrInternalServer = errors.New("internal server error")
)
