package websearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

const noResultsText = "No good DuckDuckGo Search Results was found"

// DuckDuckGo searches the DuckDuckGo HTML endpoint through the langchaingo tool.
type DuckDuckGo struct {
	httpClient *http.Client
	userAgent  string
	safety     *SafetyFilter
	logger     *slog.Logger
}

var _ Provider = (*DuckDuckGo)(nil)

// Option configures a DuckDuckGo provider.
type Option func(*DuckDuckGo) error

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(d *DuckDuckGo) error {
		if client == nil {
			return errors.New("http client is nil")
		}
		d.httpClient = client
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(d *DuckDuckGo) error {
		d.userAgent = userAgent
		return nil
	}
}

// WithSafetyFilter replaces the moderate safety filter. Nil disables flagging.
func WithSafetyFilter(filter *SafetyFilter) Option {
	return func(d *DuckDuckGo) error {
		d.safety = filter
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *DuckDuckGo) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger.With("component", "duckduckgo")
		return nil
	}
}

// NewDuckDuckGo creates a DuckDuckGo provider.
//
// Returns Provider interface to enforce abstraction.
func NewDuckDuckGo(opts ...Option) (Provider, error) {
	d := &DuckDuckGo{
		httpClient: http.DefaultClient,
		userAgent:  duckduckgo.DefaultUserAgent,
		safety:     NewModerateFilter(),
		logger:     slog.Default().With("component", "duckduckgo"),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Search runs query and returns at most maxResults parsed results with their
// safety flags set.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if maxResults <= 0 {
		return nil, ErrInvalidMaxResults
	}

	tool, err := duckduckgo.New(maxResults, d.userAgent, duckduckgo.WithHTTPClient(d.httpClient))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	output, err := tool.Call(ctx, query)
	if err != nil {
		d.logger.Warn("web search failed", "err", err)
		return nil, mapSearchError(err)
	}

	results := parseToolOutput(output)
	for i := range results {
		results[i].Unsafe = d.safety.Unsafe(results[i])
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	d.logger.Debug("web search complete", "results", len(results))
	return results, nil
}

// mapSearchError turns tool errors into package sentinels. DuckDuckGo
// answers throttled clients with 429, or with 202 and a challenge page.
func mapSearchError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "responded with 429") || strings.Contains(msg, "responded with 202") {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %w", ErrSearchFailed, err)
}

// parseToolOutput splits the tool's "Title:/Description:/URL:" blocks.
// Results without a URL are dropped since they can't be attributed.
func parseToolOutput(output string) []Result {
	output = strings.TrimSpace(output)
	if output == "" || output == noResultsText {
		return nil
	}

	var results []Result
	for _, block := range strings.Split(output, "\n\n") {
		var r Result
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "Title:"):
				r.Title = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
			case strings.HasPrefix(line, "Description:"):
				r.Snippet = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
			case strings.HasPrefix(line, "URL:"):
				r.URL = strings.TrimSpace(strings.TrimPrefix(line, "URL:"))
			}
		}
		if r.URL == "" {
			continue
		}
		if r.Title == "" {
			r.Title = "No title"
		}
		if r.Snippet == "" {
			r.Snippet = "No description available"
		}
		results = append(results, r)
	}
	return results
}
