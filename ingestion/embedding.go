package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/colloquy/ai"
	"github.com/poiesic/colloquy/retry"
	"github.com/poiesic/colloquy/search"
)

// batchEmbedder embeds texts in fixed-size batches, one pool task per batch.
type batchEmbedder struct {
	embedder  ai.Embedder
	pool      *ants.Pool
	batchSize int
	policy    retry.Policy
	logger    *slog.Logger
}

// embed returns one normalized vector per text, in input order. The first
// failing batch cancels the rest.
func (be *batchEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	if len(texts) == 0 {
		return vectors, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for start := 0; start < len(texts); start += be.batchSize {
		end := min(start+be.batchSize, len(texts))
		batch := texts[start:end]
		offset := start

		wg.Add(1)
		err := be.pool.Submit(func() {
			defer wg.Done()
			embedded, err := be.embedBatch(ctx, batch)
			if err != nil {
				fail(err)
				return
			}
			copy(vectors[offset:], embedded)
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submitting embedding batch: %w", err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

func (be *batchEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	be.logger.Debug("generating embeddings", "texts", len(texts))

	var embedded [][]float32
	err := retry.Do(ctx, be.policy, func(ctx context.Context) error {
		var err error
		embedded, err = be.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		be.logger.Error("error generating embeddings", "err", err)
		return nil, err
	}
	if len(embedded) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, received %d", ai.ErrEmbeddingFailed, len(texts), len(embedded))
	}

	for i, vector := range embedded {
		embedded[i] = search.NormalizeVector(vector)
	}
	return embedded, nil
}
