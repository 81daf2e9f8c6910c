package agent

import "errors"

var (
	// ErrSearcherRequired is returned when a document searcher is not provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrProviderRequired is returned when a web search provider is not provided.
	ErrProviderRequired = errors.New("web search provider required")

	// ErrInvalidLimit is returned for a non-positive result limit.
	ErrInvalidLimit = errors.New("limit must be greater than 0")

	// ErrInvalidTimeout is returned for a non-positive timeout.
	ErrInvalidTimeout = errors.New("timeout must be greater than 0")

	// ErrInvalidMinScore is returned for a score threshold outside [-1, 1].
	ErrInvalidMinScore = errors.New("min score must be between -1 and 1")
)
