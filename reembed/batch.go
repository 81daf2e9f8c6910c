package reembed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/colloquy/ai"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/retry"
	"github.com/poiesic/colloquy/search"
	"github.com/poiesic/colloquy/storage"
)

// BatchProcessor embeds a batch of chunks and writes the vectors back.
type BatchProcessor struct {
	repo     storage.ChunkRepository
	embedder ai.Embedder
	policy   retry.Policy
	logger   *slog.Logger

	// dimensionChecked is set once the collection dimension matches the
	// embedder's output.
	dimensionChecked bool
}

// NewBatchProcessor creates a new batch processor. Embedding calls are
// retried according to policy.
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, policy retry.Policy) *BatchProcessor {
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		policy:   policy,
		logger:   slog.Default().With("component", "reembed"),
	}
}

// Process generates vectors for chunks and replaces the stored ones.
// Vectors are normalized before they are written.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	ids := make([]core.ID, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
		ids[i] = chunk.ID
	}

	var embeddings [][]float32
	err := retry.WithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.policy.MaxAttempts, bp.policy.BaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.policy.MaxAttempts, err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: expected %d vectors, got %d", ai.ErrEmbeddingFailed, len(chunks), len(embeddings))
	}

	vectors := make([][]float32, len(embeddings))
	for i, embedding := range embeddings {
		vectors[i] = search.NormalizeVector(embedding)
	}

	if err := bp.ensureDimension(ctx, len(vectors[0])); err != nil {
		return err
	}
	if err := bp.repo.PutVectors(ctx, ids, vectors); err != nil {
		return fmt.Errorf("failed to update vectors: %w", err)
	}
	return nil
}

// ensureDimension resets the collection dimension the first time the
// embedder's output size differs from it.
func (bp *BatchProcessor) ensureDimension(ctx context.Context, dim int) error {
	if bp.dimensionChecked {
		return nil
	}

	current, err := bp.repo.Dimension(ctx)
	if err != nil {
		return fmt.Errorf("failed to read dimension: %w", err)
	}
	if current != dim {
		bp.logger.Info("resetting collection dimension", "from", current, "to", dim)
		if err := bp.repo.ResetDimension(ctx, dim); err != nil {
			return fmt.Errorf("failed to reset dimension: %w", err)
		}
	}
	bp.dimensionChecked = true
	return nil
}
