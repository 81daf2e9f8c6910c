package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/followup"
	"github.com/poiesic/colloquy/search"
)

const (
	// DefaultDocumentLimit is the number of chunks returned per query.
	DefaultDocumentLimit = 3

	// DefaultDocumentTimeout bounds embedding and search for one query.
	DefaultDocumentTimeout = 5 * time.Second
)

// Searcher runs a semantic query over the document collection.
// *search.Engine satisfies it.
type Searcher interface {
	Query(ctx context.Context, text string, k int, minScore float32, filter search.Filter) ([]core.ScoredResult, error)
}

var _ Searcher = (*search.Engine)(nil)

// DocumentAgent answers queries from the ingested documents.
type DocumentAgent struct {
	searcher Searcher
	catalog  DocumentCatalog
	limit    int
	minScore float32
	timeout  time.Duration
	logger   *slog.Logger
}

var _ Retriever = (*DocumentAgent)(nil)

// DocumentOption configures a DocumentAgent.
type DocumentOption func(*DocumentAgent) error

// WithCatalog enables document-name filters resolved against catalog.
func WithCatalog(catalog DocumentCatalog) DocumentOption {
	return func(a *DocumentAgent) error {
		a.catalog = catalog
		return nil
	}
}

// WithLimit sets how many chunks a query returns.
// Default is DefaultDocumentLimit.
func WithLimit(limit int) DocumentOption {
	return func(a *DocumentAgent) error {
		if limit <= 0 {
			return ErrInvalidLimit
		}
		a.limit = limit
		return nil
	}
}

// WithMinScore sets the similarity threshold.
// Default is search.DefaultMinScore.
func WithMinScore(minScore float32) DocumentOption {
	return func(a *DocumentAgent) error {
		if minScore < -1 || minScore > 1 {
			return ErrInvalidMinScore
		}
		a.minScore = minScore
		return nil
	}
}

// WithDocumentTimeout bounds a single query.
// Default is DefaultDocumentTimeout.
func WithDocumentTimeout(timeout time.Duration) DocumentOption {
	return func(a *DocumentAgent) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}
		a.timeout = timeout
		return nil
	}
}

// WithDocumentLogger sets a custom logger.
// Default is slog.Default().
func WithDocumentLogger(logger *slog.Logger) DocumentOption {
	return func(a *DocumentAgent) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger.With("component", "document-agent")
		return nil
	}
}

// NewDocumentAgent creates a document agent backed by searcher.
func NewDocumentAgent(searcher Searcher, opts ...DocumentOption) (*DocumentAgent, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	a := &DocumentAgent{
		searcher: searcher,
		limit:    DefaultDocumentLimit,
		minScore: search.DefaultMinScore,
		timeout:  DefaultDocumentTimeout,
		logger:   slog.Default().With("component", "document-agent"),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Retrieve searches the collection for query. A page or document named in
// the query narrows the search; when the narrowed search finds nothing the
// query runs once more over the whole collection. No matches is an empty
// result list, not a failure.
func (a *DocumentAgent) Retrieve(ctx context.Context, query string, history []core.Turn) (out core.AgentOutput) {
	defer recoverInto(&out, core.AgentDocument, CapabilityDocument, a.logger)

	if err := core.ValidateQuery(query); err != nil {
		return failed(core.AgentDocument, CapabilityDocument, err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	filter := a.filterFor(ctx, query, history)
	results, err := a.searcher.Query(ctx, query, a.limit, a.minScore, filter)
	if err == nil && len(results) == 0 && !filter.IsZero() {
		a.logger.Debug("filtered search found nothing, retrying unfiltered",
			"document", filter.DocumentName,
			"page", filter.Page)
		results, err = a.searcher.Query(ctx, query, a.limit, a.minScore, search.Filter{})
	}
	if err != nil {
		a.logger.Error("document search failed", "err", err)
		return failed(core.AgentDocument, CapabilityDocument, err)
	}

	if results == nil {
		results = []core.ScoredResult{}
	}
	a.logger.Debug("document search complete", "results", len(results), "history", len(history))

	return core.AgentOutput{
		Agent:   core.AgentDocument,
		Results: results,
	}
}

// filterFor resolves the filter from the newest text. A contextualized
// follow-up only inherits the previous query's filter when its own text
// names no page or document.
func (a *DocumentAgent) filterFor(ctx context.Context, query string, history []core.Turn) search.Filter {
	current, previous := followup.Split(query, history)
	filter := resolveFilter(ctx, current, a.catalog, a.logger)
	if filter.IsZero() && previous != "" {
		filter = resolveFilter(ctx, previous, a.catalog, a.logger)
	}
	return filter
}
