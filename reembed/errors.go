package reembed

import "errors"

var (
	ErrRepositoryRequired = errors.New("chunk repository is required")
	ErrEmbedderRequired   = errors.New("embedder is required")
	ErrInvalidBatchSize   = errors.New("batch size must be positive")
)
