package reembed

import (
	"context"

	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/storage"
)

// ChunkIterator walks the current chunks of a repository in batches.
type ChunkIterator struct {
	repo      storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates an iterator that hands out batchSize chunks at a time.
func NewChunkIterator(repo storage.ChunkRepository, batchSize int) *ChunkIterator {
	return &ChunkIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with consecutive batches of chunks in ID order. The scan
// completes before the first call, so fn may write to the repository.
// Iteration stops at the first error from fn.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.Chunk) error) error {
	var chunks []*core.Chunk
	err := it.repo.ScanChunks(ctx, storage.ChunkFilter{}, func(chunk *core.Chunk, _ []float32) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		return err
	}

	for start := 0; start < len(chunks); start += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+it.batchSize, len(chunks))
		if err := fn(chunks[start:end]); err != nil {
			return err
		}
	}
	return nil
}
