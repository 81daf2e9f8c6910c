package ingestion

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/colloquy/ai"
	"github.com/poiesic/colloquy/ai/mock"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/retry"
	"github.com/poiesic/colloquy/search"
	"github.com/poiesic/colloquy/storage"
	"github.com/poiesic/colloquy/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepositories(t *testing.T) (storage.ChunkRepository, storage.DocumentRepository) {
	t.Helper()
	chunks, documents, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunks.Close()
		documents.Close()
		backend.Close()
	})
	return chunks, documents
}

func setupPipeline(t *testing.T, embedder ai.Embedder, opts ...Option) (*Pipeline, storage.ChunkRepository, storage.DocumentRepository) {
	t.Helper()
	chunks, documents := setupTestRepositories(t)
	opts = append([]Option{
		WithPoolSize(2),
		WithRetryPolicy(retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Retryable: retry.IsTransient}),
	}, opts...)
	p, err := NewPipeline(chunks, documents, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p, chunks, documents
}

func scanAll(t *testing.T, repo storage.ChunkRepository) []*core.Chunk {
	t.Helper()
	var out []*core.Chunk
	err := repo.ScanChunks(context.Background(), storage.ChunkFilter{}, func(chunk *core.Chunk, _ []float32) error {
		out = append(out, chunk)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestNewPipeline(t *testing.T) {
	chunks, documents := setupTestRepositories(t)
	embedder := mock.NewMockEmbedder()

	_, err := NewPipeline(nil, documents, embedder)
	assert.Equal(t, ErrChunkRepositoryRequired, err)

	_, err = NewPipeline(chunks, nil, embedder)
	assert.Equal(t, ErrDocumentRepositoryRequired, err)

	_, err = NewPipeline(chunks, documents, nil)
	assert.Equal(t, ErrEmbedderRequired, err)

	_, err = NewPipeline(chunks, documents, embedder, WithBatchSize(0))
	assert.Equal(t, ErrInvalidBatchSize, err)

	_, err = NewPipeline(chunks, documents, embedder, WithChunking(100, 100))
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	_, err = NewPipeline(chunks, documents, embedder, WithRetryPolicy(retry.Policy{}))
	assert.ErrorIs(t, err, retry.ErrInvalidMaxAttempts)

	p, err := NewPipeline(chunks, documents, embedder, WithPoolSize(0), WithLogger(nil))
	require.NoError(t, err)
	defer p.Release()
	assert.Equal(t, DefaultBatchSize, p.batchSize)
	assert.Equal(t, 1, p.pool.Cap())
}

func TestIngestDocument(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder()
	p, chunks, documents := setupPipeline(t, embedder, WithBatchSize(4))

	doc := Document{
		Name: "handbook.pdf",
		Pages: []Page{
			{Number: 1, Text: longText(40)},
			{Number: 2, Text: "Residual connections help deep networks train."},
		},
	}
	manifest, err := p.IngestDocument(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), manifest.Generation)
	assert.Equal(t, 2, manifest.Pages)
	assert.Equal(t, doc.ID(), manifest.ID)

	stored := scanAll(t, chunks)
	require.Len(t, stored, manifest.Chunks)
	for i, chunk := range stored {
		assert.Equal(t, uint64(1), chunk.Generation)
		if i > 0 {
			assert.Greater(t, chunk.ID, stored[i-1].ID)
		}
	}
	assert.Greater(t, embedder.CallCount(), 1, "chunks are embedded in batches")

	saved, err := documents.FindDocumentByName(ctx, "handbook.pdf")
	require.NoError(t, err)
	assert.Equal(t, manifest.Chunks, saved.Chunks)

	engine, err := search.NewEngine(chunks, embedder)
	require.NoError(t, err)
	results, err := engine.Query(ctx, "Residual connections help deep networks train.", 3, search.DefaultMinScore, search.Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.GreaterOrEqual(t, results[0].Score, float32(0.99))
	assert.Equal(t, 2, results[0].Chunk.Page)
}

func TestIngestDocument_Reingest(t *testing.T) {
	ctx := context.Background()
	p, chunks, _ := setupPipeline(t, mock.NewMockEmbedder())

	_, err := p.IngestDocument(ctx, Document{Name: "guide.pdf", Pages: []Page{{Number: 1, Text: longText(30)}}})
	require.NoError(t, err)
	_, err = p.IngestDocument(ctx, Document{Name: "other.pdf", Pages: []Page{{Number: 1, Text: "Unrelated text."}}})
	require.NoError(t, err)

	manifest, err := p.IngestDocument(ctx, Document{Name: "guide.pdf", Pages: []Page{{Number: 1, Text: "Rewritten guide."}}})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), manifest.Generation)
	assert.Equal(t, 1, manifest.Chunks)

	count, err := chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	texts := make([]string, 0, 2)
	for _, chunk := range scanAll(t, chunks) {
		texts = append(texts, chunk.Text)
	}
	assert.ElementsMatch(t, []string{"Rewritten guide.", "Unrelated text."}, texts)
}

func TestIngestChunks(t *testing.T) {
	ctx := context.Background()
	p, chunks, _ := setupPipeline(t, mock.NewMockEmbedder())

	_, err := p.IngestDocument(ctx, Document{Name: "guide.pdf", Pages: []Page{{Number: 1, Text: "First version."}}})
	require.NoError(t, err)
	_, err = p.IngestDocument(ctx, Document{Name: "guide.pdf", Pages: []Page{{Number: 1, Text: "Second version."}}})
	require.NoError(t, err)

	added, err := p.IngestChunks(ctx,
		&core.Chunk{DocumentName: "paper.pdf", Page: 7, Text: "Page seven text.", EndOffset: 16},
		&core.Chunk{DocumentName: "guide.pdf", Page: 4, Text: "Appended to the guide.", EndOffset: 22},
		&core.Chunk{DocumentName: "paper.pdf", Page: 1, Text: "Page one text.", EndOffset: 14},
	)
	require.NoError(t, err)
	require.Len(t, added, 3)
	assert.Less(t, added[0].ID, added[1].ID)
	assert.Less(t, added[1].ID, added[2].ID)
	assert.Equal(t, core.IDFromContent("paper.pdf"), added[0].DocumentID)
	assert.Equal(t, uint64(0), added[0].Generation)
	assert.Equal(t, uint64(2), added[1].Generation, "joins the guide's current generation")

	count, err := chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	none, err := p.IngestChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = p.IngestChunks(ctx, &core.Chunk{DocumentName: "paper.pdf", Page: 0, Text: "bad page"})
	assert.ErrorIs(t, err, core.ErrInvalidChunk)
}

func TestIngest_EmbeddingFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("persistent failure stores nothing", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, ai.ErrEmbeddingFailed
		}
		p, chunks, documents := setupPipeline(t, embedder)

		_, err := p.IngestDocument(ctx, Document{Name: "guide.pdf", Pages: []Page{{Number: 1, Text: "Some text."}}})
		assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)

		count, err := chunks.CountChunks(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		_, err = documents.FindDocumentByName(ctx, "guide.pdf")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("transient failure is retried", func(t *testing.T) {
		var calls atomic.Int32
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			if calls.Add(1) == 1 {
				return nil, errors.New("connection reset")
			}
			out := make([][]float32, len(texts))
			for i, text := range texts {
				out[i] = mock.GenerateDeterministicVector(text, 8)
			}
			return out, nil
		}
		p, chunks, _ := setupPipeline(t, embedder)

		_, err := p.IngestDocument(ctx, Document{Name: "guide.pdf", Pages: []Page{{Number: 1, Text: "Some text."}}})
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())

		dim, err := chunks.Dimension(ctx)
		require.NoError(t, err)
		assert.Equal(t, 8, dim)
	})

	t.Run("short response", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{}, nil
		}
		p, _, _ := setupPipeline(t, embedder)

		_, err := p.IngestDocument(ctx, Document{Name: "guide.pdf", Pages: []Page{{Number: 1, Text: "Some text."}}})
		assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)
	})

	t.Run("dimension change is rejected", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		p, _, _ := setupPipeline(t, embedder)

		_, err := p.IngestDocument(ctx, Document{Name: "guide.pdf", Pages: []Page{{Number: 1, Text: "Some text."}}})
		require.NoError(t, err)

		embedder.Dimension = 16
		_, err = p.IngestDocument(ctx, Document{Name: "other.pdf", Pages: []Page{{Number: 1, Text: "Other text."}}})
		assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
	})
}

// failingManifests rejects every manifest write.
type failingManifests struct {
	storage.DocumentRepository
}

func (failingManifests) SaveDocument(context.Context, *core.Document) error {
	return assert.AnError
}

func TestIngestDocument_ManifestFailureLeavesNoChunks(t *testing.T) {
	ctx := context.Background()
	chunks, documents := setupTestRepositories(t)

	p, err := NewPipeline(chunks, failingManifests{documents}, mock.NewMockEmbedder(), WithPoolSize(1))
	require.NoError(t, err)
	t.Cleanup(p.Release)

	_, err = p.IngestDocument(ctx, Document{Name: "guide.pdf", Pages: []Page{{Number: 1, Text: longText(30)}}})
	require.ErrorIs(t, err, assert.AnError)

	assert.Empty(t, scanAll(t, chunks))
	dim, err := chunks.Dimension(ctx)
	require.NoError(t, err)
	assert.Zero(t, dim)
}
