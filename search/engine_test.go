package search

import (
	"context"
	"log/slog"
	"testing"

	"github.com/poiesic/colloquy/ai"
	"github.com/poiesic/colloquy/ai/mock"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/storage"
	"github.com/poiesic/colloquy/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) storage.ChunkRepository {
	t.Helper()
	chunks, docs, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		docs.Close()
		chunks.Close()
		backend.Close()
	})
	return chunks
}

func seed(t *testing.T, repo storage.ChunkRepository, embedder ai.Embedder, doc string, page int, texts ...string) {
	t.Helper()
	ctx := context.Background()
	chunks := make([]*core.Chunk, len(texts))
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{DocumentID: core.IDFromContent(doc), DocumentName: doc, Page: page, Text: text, EndOffset: len(text)}
		v, err := embedder.EmbedText(ctx, text)
		require.NoError(t, err)
		vectors[i] = NormalizeVector(v)
	}
	_, err := repo.AddChunks(ctx, chunks, vectors)
	require.NoError(t, err)
}

// recordingMonitor captures monitor callbacks.
type recordingMonitor struct {
	query      string
	dimension  int
	candidates int
	results    int
}

func (m *recordingMonitor) Start(query string)                 { m.query = query }
func (m *recordingMonitor) AfterEmbedding(dimension int)       { m.dimension = dimension }
func (m *recordingMonitor) AfterScan(candidates int)           { m.candidates = candidates }
func (m *recordingMonitor) Finish(results []core.ScoredResult) { m.results = len(results) }

func TestNewEngine(t *testing.T) {
	repo := setupRepo(t)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		engine, err := NewEngine(repo, embedder)
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		engine, err := NewEngine(repo, embedder, WithLogger(nil), WithMonitor(nil))
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("with custom logger", func(t *testing.T) {
		_, err := NewEngine(repo, embedder, WithLogger(slog.Default()))
		require.NoError(t, err)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewEngine(nil, embedder)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewEngine(repo, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestQuery_RoundTrip(t *testing.T) {
	repo := setupRepo(t)
	embedder := mock.NewMockEmbedder()
	seed(t, repo, embedder, "paper.pdf", 1,
		"Attention is computed as a weighted sum of values.",
		"The encoder has six identical layers.",
		"Positional encodings use sine and cosine functions.",
	)

	engine, err := NewEngine(repo, embedder)
	require.NoError(t, err)

	results, err := engine.Query(context.Background(), "The encoder has six identical layers.", 3, 0.5, Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "The encoder has six identical layers.", results[0].Chunk.Text)
	assert.GreaterOrEqual(t, results[0].Score, float32(0.99))
	assert.Equal(t, "paper.pdf", results[0].Source.Document)
	assert.LessOrEqual(t, len(results), 3)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, float32(0.5))
	}
}

func TestQuery_Filter(t *testing.T) {
	repo := setupRepo(t)
	embedder := mock.NewMockEmbedder()
	seed(t, repo, embedder, "a.pdf", 1, "shared text")
	seed(t, repo, embedder, "b.pdf", 2, "shared text")

	engine, err := NewEngine(repo, embedder)
	require.NoError(t, err)

	results, err := engine.Query(context.Background(), "shared text", 3, 0.5, Filter{DocumentName: "b.pdf"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b.pdf", results[0].Source.Document)

	results, err = engine.Query(context.Background(), "shared text", 3, 0.5, Filter{Page: 3})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQuery_EmptyCorpus(t *testing.T) {
	engine, err := NewEngine(setupRepo(t), mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := engine.Query(context.Background(), "anything at all", 3, 0.5, Filter{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQuery_EmbeddingFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	engine, err := NewEngine(setupRepo(t), embedder)
	require.NoError(t, err)

	_, err = engine.Query(context.Background(), "   ", 3, 0.5, Filter{})
	assert.ErrorIs(t, err, ai.ErrEmptyInput)

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, nil
	}
	_, err = engine.Query(context.Background(), "real question", 3, 0.5, Filter{})
	assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)
}

func TestQueryWithMonitor(t *testing.T) {
	repo := setupRepo(t)
	embedder := mock.NewMockEmbedder()
	seed(t, repo, embedder, "a.pdf", 1, "first chunk", "second chunk")

	engine, err := NewEngine(repo, embedder)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	_, err = engine.QueryWithMonitor(context.Background(), "first chunk", 3, 0.5, Filter{}, monitor)
	require.NoError(t, err)

	assert.Equal(t, "first chunk", monitor.query)
	assert.Equal(t, mock.DefaultDimension, monitor.dimension)
	assert.Equal(t, 2, monitor.candidates)
	assert.GreaterOrEqual(t, monitor.results, 1)
}

func TestSearch_Cancelled(t *testing.T) {
	repo := setupRepo(t)
	embedder := mock.NewMockEmbedder()
	seed(t, repo, embedder, "a.pdf", 1, "chunk")

	engine, err := NewEngine(repo, embedder)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.Search(ctx, []float32{1}, 3, 0.5, Filter{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, core.ErrRetrievalFailure)
}
