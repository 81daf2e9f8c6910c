package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/retry"
	"github.com/poiesic/colloquy/websearch"
)

const (
	// DefaultWebPageSize is the number of hits requested from the provider.
	DefaultWebPageSize = 5

	// DefaultWebTimeout bounds one web search, retries included.
	DefaultWebTimeout = 10 * time.Second
)

// Placeholders for hits the provider returned without a title or snippet.
const (
	untitled      = "No title"
	noDescription = "No description available"
)

// WebAgent answers queries from a web search provider.
type WebAgent struct {
	provider websearch.Provider
	pageSize int
	timeout  time.Duration
	policy   retry.Policy
	logger   *slog.Logger
}

var _ Retriever = (*WebAgent)(nil)

// WebOption configures a WebAgent.
type WebOption func(*WebAgent) error

// WithPageSize sets how many hits are requested per search.
// Default is DefaultWebPageSize.
func WithPageSize(size int) WebOption {
	return func(a *WebAgent) error {
		if size <= 0 {
			return ErrInvalidLimit
		}
		a.pageSize = size
		return nil
	}
}

// WithWebTimeout bounds a single search.
// Default is DefaultWebTimeout.
func WithWebTimeout(timeout time.Duration) WebOption {
	return func(a *WebAgent) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}
		a.timeout = timeout
		return nil
	}
}

// WithRetryPolicy overrides the retry policy.
// Default is retry.Once.
func WithRetryPolicy(policy retry.Policy) WebOption {
	return func(a *WebAgent) error {
		if policy.MaxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		a.policy = policy
		return nil
	}
}

// WithWebLogger sets a custom logger.
// Default is slog.Default().
func WithWebLogger(logger *slog.Logger) WebOption {
	return func(a *WebAgent) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger.With("component", "web-agent")
		return nil
	}
}

// NewWebAgent creates a web agent backed by provider.
func NewWebAgent(provider websearch.Provider, opts ...WebOption) (*WebAgent, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}

	a := &WebAgent{
		provider: provider,
		pageSize: DefaultWebPageSize,
		timeout:  DefaultWebTimeout,
		policy:   retry.Once,
		logger:   slog.Default().With("component", "web-agent"),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Retrieve searches the web for query. Duplicate URLs and results flagged
// unsafe are dropped. An empty result set is reported as a NoResults failure.
func (a *WebAgent) Retrieve(ctx context.Context, query string, history []core.Turn) (out core.AgentOutput) {
	defer recoverInto(&out, core.AgentWeb, CapabilityWeb, a.logger)

	if err := core.ValidateQuery(query); err != nil {
		return failed(core.AgentWeb, CapabilityWeb, err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var hits []websearch.Result
	err := retry.Do(ctx, a.policy, func(ctx context.Context) error {
		var err error
		hits, err = a.provider.Search(ctx, query, a.pageSize)
		return err
	})
	if err != nil {
		a.logger.Error("web search failed", "err", err)
		return failed(core.AgentWeb, CapabilityWeb, err)
	}

	results := toResults(hits)
	if len(results) == 0 {
		a.logger.Debug("web search returned no usable results", "hits", len(hits))
		return failed(core.AgentWeb, CapabilityWeb, fmt.Errorf("%w: web search for %q", core.ErrNoResults, query))
	}

	a.logger.Debug("web search complete", "hits", len(hits), "results", len(results))
	return core.AgentOutput{
		Agent:   core.AgentWeb,
		Results: results,
	}
}

// toResults keeps the first hit per normalized URL and drops unsafe ones.
// Scores fall with provider rank since the provider reports none.
func toResults(hits []websearch.Result) []core.ScoredResult {
	seen := make(map[string]bool, len(hits))
	results := make([]core.ScoredResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Unsafe {
			continue
		}
		key := websearch.NormalizeURL(hit.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		title := strings.TrimSpace(hit.Title)
		if title == "" {
			title = untitled
		}
		snippet := strings.TrimSpace(hit.Snippet)
		if snippet == "" {
			snippet = noDescription
		}

		results = append(results, core.ScoredResult{
			Snippet: snippet,
			Score:   1 / float32(len(results)+1),
			Source: core.Source{
				Kind:  core.SourceWeb,
				Title: title,
				URL:   strings.TrimSpace(hit.URL),
			},
		})
	}
	return results
}
