package ai

import (
	"errors"
	"fmt"

	"github.com/poiesic/colloquy/core"
)

var (
	// ErrEmptyInput is returned when asked to embed or classify blank text.
	ErrEmptyInput = fmt.Errorf("%w: empty text", core.ErrMalformedInput)

	// ErrEmbeddingFailed is returned when the embedding provider fails or returns no vector.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrClassificationFailed is returned when the classifier cannot produce a usable result.
	ErrClassificationFailed = fmt.Errorf("%w: model classification", core.ErrClassificationFailure)

	// ErrInvalidConfig is wrapped by Config.Validate failures.
	ErrInvalidConfig = errors.New("ai config")

	// ErrRateLimited is returned when the model provider reports a rate limit.
	ErrRateLimited = fmt.Errorf("%w: model provider", core.ErrProviderRateLimited)
)
