package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a posting repository is not provided.
	ErrRepositoryRequired = errors.New("posting repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrSourceRequired is returned when a posting source is not provided.
	ErrSourceRequired = errors.New("posting source required")

	// ErrPipelineRequired is returned when a pipeline is not provided.
	ErrPipelineRequired = errors.New("pipeline required")

	// ErrInvalidBatchSize is returned when the commit batch size is not positive.
	ErrInvalidBatchSize = errors.New("commit batch size must be positive")
)
