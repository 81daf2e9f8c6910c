package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/colloquy/ai"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/retry"
	"github.com/poiesic/colloquy/storage"
)

// DefaultBatchSize is the number of chunks embedded per provider call.
const DefaultBatchSize = 32

// Pipeline chunks, embeds and stores documents.
type Pipeline struct {
	chunks    storage.ChunkRepository
	documents storage.DocumentRepository
	embedder  ai.Embedder
	chunker   *Chunker
	pool      *ants.Pool
	batchSize int
	policy    retry.Policy
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of embedding batches processed concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per provider call.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithChunking sets the chunk size and overlap, in runes.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		chunker, err := NewChunker(size, overlap)
		if err != nil {
			return err
		}
		p.chunker = chunker
		return nil
	}
}

// WithRetryPolicy sets how embedding calls are retried.
// Default is retry.Once.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Pipeline) error {
		if policy.MaxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		p.policy = policy
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	chunks storage.ChunkRepository,
	documents storage.DocumentRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	chunker, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		pool.Release()
		return nil, err
	}

	p := &Pipeline{
		chunks:    chunks,
		documents: documents,
		embedder:  embedder,
		chunker:   chunker,
		pool:      pool,
		batchSize: DefaultBatchSize,
		policy:    retry.Once,
		logger:    slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// IngestChunks embeds and appends pre-split chunks. Chunks may arrive in any
// order and from several documents; storage assigns IDs in arrival order.
// A chunk without a generation joins its document's current one.
func (p *Pipeline) IngestChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}

	generations := make(map[core.ID]uint64)
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
		if chunk.DocumentID == 0 {
			chunk.DocumentID = core.IDFromContent(chunk.DocumentName)
		}
		if chunk.Generation != 0 {
			continue
		}
		gen, ok := generations[chunk.DocumentID]
		if !ok {
			doc, err := p.documents.GetDocument(ctx, chunk.DocumentID)
			switch {
			case err == nil:
				gen = doc.Generation
			case errors.Is(err, storage.ErrNotFound):
			default:
				return nil, err
			}
			generations[chunk.DocumentID] = gen
		}
		chunk.Generation = gen
	}

	return p.store(ctx, chunks)
}

// IngestDocument chunks doc and stores it as the document's next generation.
// Chunks of earlier generations are pruned once the new one is current.
func (p *Pipeline) IngestDocument(ctx context.Context, doc Document) (*core.Document, error) {
	chunks, err := p.chunker.Split(doc)
	if err != nil {
		return nil, err
	}

	id := doc.ID()
	var generation uint64 = 1
	existing, err := p.documents.GetDocument(ctx, id)
	switch {
	case err == nil:
		generation = existing.Generation + 1
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, err
	}

	for _, chunk := range chunks {
		chunk.Generation = generation
	}

	p.logger.Info("ingesting document",
		"document", doc.Name,
		"pages", len(doc.Pages),
		"chunks", len(chunks),
		"generation", generation)

	vectors, err := p.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	manifest := &core.Document{
		ID:         id,
		Name:       doc.Name,
		Generation: generation,
		Pages:      len(doc.Pages),
		Chunks:     len(chunks),
	}
	// The chunks and the manifest that makes them current commit together.
	err = p.chunks.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := p.chunks.AddChunks(ctx, chunks, vectors); err != nil {
			return err
		}
		if err := p.documents.SaveDocument(ctx, manifest); err != nil {
			return fmt.Errorf("saving document manifest: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	removed, err := p.chunks.PruneSuperseded(ctx)
	if err != nil {
		// The new generation is already current; stale chunks are only wasted space.
		p.logger.Warn("error pruning superseded chunks", "document", doc.Name, "err", err)
	} else if removed > 0 {
		p.logger.Debug("pruned superseded chunks", "document", doc.Name, "removed", removed)
	}

	return manifest, nil
}

func (p *Pipeline) store(ctx context.Context, chunks []*core.Chunk) ([]*core.Chunk, error) {
	vectors, err := p.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}
	return p.chunks.AddChunks(ctx, chunks, vectors)
}

// embed batches the chunk texts through the worker pool.
func (p *Pipeline) embed(ctx context.Context, chunks []*core.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embedder := &batchEmbedder{
		embedder:  p.embedder,
		pool:      p.pool,
		batchSize: p.batchSize,
		policy:    p.policy,
		logger:    p.logger,
	}
	return embedder.embed(ctx, texts)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
