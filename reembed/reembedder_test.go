package reembed

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/colloquy/ai/mock"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(batchSize int) *Config {
	return &Config{
		BatchSize:      batchSize,
		ReportInterval: batchSize,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func TestNewReembedder(t *testing.T) {
	repo, _ := setupTestDB(t)
	embedder := mock.NewMockEmbedder()

	tests := []struct {
		name    string
		build   func() (*Reembedder, error)
		wantErr error
	}{
		{
			name:    "missing repository",
			build:   func() (*Reembedder, error) { return NewReembedder(nil, embedder, nil, nil) },
			wantErr: ErrRepositoryRequired,
		},
		{
			name:    "missing embedder",
			build:   func() (*Reembedder, error) { return NewReembedder(repo, nil, nil, nil) },
			wantErr: ErrEmbedderRequired,
		},
		{
			name:    "zero batch size",
			build:   func() (*Reembedder, error) { return NewReembedder(repo, embedder, &Config{MaxRetries: 1}, nil) },
			wantErr: ErrInvalidBatchSize,
		},
		{
			name:    "zero retries",
			build:   func() (*Reembedder, error) { return NewReembedder(repo, embedder, &Config{BatchSize: 1}, nil) },
			wantErr: retry.ErrInvalidMaxAttempts,
		},
		{
			name:  "defaults",
			build: func() (*Reembedder, error) { return NewReembedder(repo, embedder, nil, nil) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.build()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, r)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Greater(t, config.BatchSize, 0, "batch size should be positive")
	assert.Greater(t, config.ReportInterval, 0, "report interval should be positive")
	assert.Greater(t, config.MaxRetries, 0, "max retries should be positive")
	assert.Greater(t, config.RetryDelay, time.Duration(0), "retry delay should be positive")
}

func TestReembedder_Run(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	chunks := seedChunks(t, repo, "paper.pdf", 0, 25, 4)

	var buf bytes.Buffer
	embedder := &mock.MockEmbedder{Dimension: 8}
	reembedder, err := NewReembedder(repo, embedder, testConfig(10), &buf)
	require.NoError(t, err)

	processed, err := reembedder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, processed)
	assert.Equal(t, 3, embedder.CallCount(), "one embedding call per batch")

	dim, err := repo.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, dim)

	vectors := vectorsByID(t, repo)
	require.Len(t, vectors, 25)
	for _, chunk := range chunks {
		want := mock.GenerateDeterministicVector(chunk.Text, 8)
		got := vectors[chunk.ID]
		require.Len(t, got, 8)
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-5)
		}
	}

	output := buf.String()
	assert.Contains(t, output, "Starting reembedding of 25 chunks (batch size: 10)")
	assert.Contains(t, output, "25/25")
	assert.Contains(t, output, "Reembedding complete. Processed 25 chunks")
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	repo, _ := setupTestDB(t)

	var buf bytes.Buffer
	embedder := mock.NewMockEmbedder()
	reembedder, err := NewReembedder(repo, embedder, testConfig(10), &buf)
	require.NoError(t, err)

	processed, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Zero(t, embedder.CallCount())
	assert.Contains(t, buf.String(), "No chunks found")
}

func TestReembedder_PrunesSupersededChunks(t *testing.T) {
	repo, documents := setupTestDB(t)
	ctx := context.Background()

	seedChunks(t, repo, "paper.pdf", 1, 4, 4)
	current := seedChunks(t, repo, "paper.pdf", 2, 3, 4)
	require.NoError(t, documents.SaveDocument(ctx, &core.Document{
		ID:         core.IDFromContent("paper.pdf"),
		Name:       "paper.pdf",
		Generation: 2,
		Pages:      1,
	}))

	var embedded atomic.Int32
	embedder := &mock.MockEmbedder{
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			embedded.Add(int32(len(texts)))
			out := make([][]float32, len(texts))
			for i, text := range texts {
				out[i] = mock.GenerateDeterministicVector(text, 6)
			}
			return out, nil
		},
	}

	reembedder, err := NewReembedder(repo, embedder, testConfig(10), nil)
	require.NoError(t, err)

	processed, err := reembedder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(current), processed)
	assert.Equal(t, int32(len(current)), embedded.Load())

	removed, err := repo.PruneSuperseded(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed, "superseded chunks should already be gone")
}

func TestReembedder_EmbeddingError(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	seedChunks(t, repo, "paper.pdf", 0, 25, 4)

	boom := errors.New("model unavailable")
	var calls atomic.Int32
	embedder := &mock.MockEmbedder{
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			if calls.Add(1) > 1 {
				return nil, boom
			}
			out := make([][]float32, len(texts))
			for i, text := range texts {
				out[i] = mock.GenerateDeterministicVector(text, 8)
			}
			return out, nil
		},
	}

	reembedder, err := NewReembedder(repo, embedder, testConfig(10), nil)
	require.NoError(t, err)

	processed, err := reembedder.Run(ctx)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 10, processed, "the first batch was written before the failure")
	assert.Equal(t, int32(3), calls.Load(), "second batch should use both attempts")
}

func TestReembedder_ContextCancellation(t *testing.T) {
	repo, _ := setupTestDB(t)
	seedChunks(t, repo, "paper.pdf", 0, 20, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder := &mock.MockEmbedder{
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			cancel()
			out := make([][]float32, len(texts))
			for i, text := range texts {
				out[i] = mock.GenerateDeterministicVector(text, 4)
			}
			return out, nil
		},
	}

	reembedder, err := NewReembedder(repo, embedder, testConfig(5), nil)
	require.NoError(t, err)

	processed, err := reembedder.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, processed, 20)
}
