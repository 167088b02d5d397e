package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrEmptyQuery    = errors.New("query text cannot be empty")
	ErrIndexNotFound = errors.New("vector index not found")
)
