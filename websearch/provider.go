// Package websearch is the boundary to external web search providers.
package websearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/colloquy/core"
)

// Result is a single web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`

	// Unsafe is set when the safety filter flagged the result.
	Unsafe bool `json:"unsafe"`
}

// Provider runs a web search and returns at most maxResults hits.
// Implementations must be thread-safe for concurrent use.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

var (
	// ErrRateLimited indicates the provider throttled the request. It is recoverable.
	ErrRateLimited = fmt.Errorf("%w: web search", core.ErrProviderRateLimited)

	// ErrSearchFailed indicates the provider could not be reached or returned an error.
	ErrSearchFailed = fmt.Errorf("%w: web search failed", core.ErrRetrievalFailure)

	// ErrEmptyQuery indicates a blank query.
	ErrEmptyQuery = fmt.Errorf("%w: empty search query", core.ErrMalformedInput)

	// ErrInvalidMaxResults indicates a non-positive result count.
	ErrInvalidMaxResults = errors.New("maxResults must be greater than 0")
)
