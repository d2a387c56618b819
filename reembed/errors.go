package reembed

import "errors"

var (
	// ErrRepositoryRequired is returned when a posting repository is not provided.
	ErrRepositoryRequired = errors.New("posting repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
