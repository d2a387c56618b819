package chunker

import "errors"

var (
	// ErrInvalidSize indicates a non-positive maximum chunk size.
	ErrInvalidSize = errors.New("chunk size must be positive")

	// ErrInvalidOverlap indicates a negative overlap or one that is not smaller than the chunk size.
	ErrInvalidOverlap = errors.New("overlap must be non-negative and smaller than chunk size")
)
