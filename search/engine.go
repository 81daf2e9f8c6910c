package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/colloquy/ai"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/storage"
)

// Filter narrows a search to one document, one page, or both.
type Filter = storage.ChunkFilter

// Engine provides semantic search over stored chunks.
type Engine struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	monitor  SearchMonitor
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "search")
		return nil
	}
}

// WithMonitor sets the monitor used by Query and Search.
// A nil monitor disables monitoring.
func WithMonitor(monitor SearchMonitor) Option {
	return func(e *Engine) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		e.monitor = monitor
		return nil
	}
}

// NewEngine creates a new search engine.
func NewEngine(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Engine, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		chunks:   chunks,
		embedder: embedder,
		monitor:  &noopMonitor{},
		logger:   slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Embed returns the normalized embedding of text.
func (e *Engine) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, ai.ErrEmbeddingFailed
	}
	return NormalizeVector(vector), nil
}

// Search ranks current chunks matching filter against an already-embedded query.
func (e *Engine) Search(ctx context.Context, query []float32, k int, minScore float32, filter Filter) ([]core.ScoredResult, error) {
	return e.search(ctx, query, k, minScore, filter, e.monitor)
}

// Query embeds text and searches for it.
func (e *Engine) Query(ctx context.Context, text string, k int, minScore float32, filter Filter) ([]core.ScoredResult, error) {
	return e.QueryWithMonitor(ctx, text, k, minScore, filter, e.monitor)
}

// QueryWithMonitor is Query with a per-call monitor.
// The monitor receives callbacks at each stage of the search process.
func (e *Engine) QueryWithMonitor(ctx context.Context, text string, k int, minScore float32, filter Filter, monitor SearchMonitor) ([]core.ScoredResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(text)

	query, err := e.Embed(ctx, text)
	if err != nil {
		e.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(len(query))

	return e.search(ctx, query, k, minScore, filter, monitor)
}

func (e *Engine) search(ctx context.Context, query []float32, k int, minScore float32, filter Filter, monitor SearchMonitor) ([]core.ScoredResult, error) {
	var candidates []Candidate
	err := e.chunks.ScanChunks(ctx, filter, func(chunk *core.Chunk, vector []float32) error {
		candidates = append(candidates, Candidate{Chunk: chunk, Vector: vector})
		return nil
	})
	if err != nil {
		e.logger.Error("error scanning chunks", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrRetrievalFailure, err)
	}
	monitor.AfterScan(len(candidates))

	results := Rank(query, candidates, k, minScore)
	e.logger.Debug("search complete", "candidates", len(candidates), "results", len(results))
	monitor.Finish(results)

	return results, nil
}
