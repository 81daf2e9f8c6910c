package ingestion

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidChunkSize is returned for a non-positive chunk size or an
	// overlap that is negative or not smaller than the chunk size.
	ErrInvalidChunkSize = errors.New("invalid chunk size or overlap")

	// ErrInvalidBatchSize is returned for a non-positive batch size.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrNoText is returned when a document has no page with text.
	ErrNoText = errors.New("document has no text")

	// ErrUnnamedDocument is returned when a document has no name.
	ErrUnnamedDocument = errors.New("document name cannot be empty")

	// ErrUnsupportedFile is returned by LoadFile for file types it cannot read.
	ErrUnsupportedFile = errors.New("unsupported file type")
)
