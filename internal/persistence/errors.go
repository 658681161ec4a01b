package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrInvalidKey is returned for empty or whitespace-only record keys.
	ErrInvalidKey = errors.New("persistence: invalid key")
	// ErrCorrupt is returned when the backing storage cannot be decoded.
	ErrCorrupt = errors.New("persistence: corrupt storage")
)
