package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/colloquy/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// mapProviderError wraps a langchaingo error with the given sentinel, or with
// ai.ErrRateLimited when the provider reports a rate limit. Context errors are
// kept in the chain so callers can tell timeouts from provider failures.
func mapProviderError(sentinel, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	if llms.IsRateLimitError(openai.MapError(err)) {
		return fmt.Errorf("%w: %w", ai.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
