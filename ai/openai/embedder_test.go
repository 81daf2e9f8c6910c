package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/colloquy/ai"
	"github.com/poiesic/colloquy/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbeddings satisfies langchaingo's embeddings.Embedder.
type stubEmbeddings struct {
	vectors [][]float32
	err     error
	batches [][]string
	queries []string
}

func (s *stubEmbeddings) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	s.batches = append(s.batches, texts)
	return s.vectors, s.err
}

func (s *stubEmbeddings) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	s.queries = append(s.queries, text)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.vectors) == 0 {
		return nil, nil
	}
	return s.vectors[0], nil
}

func TestEmbedder_EmbedText(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the query vector", func(t *testing.T) {
		client := &stubEmbeddings{vectors: [][]float32{{0.1, 0.2}}}
		e := newEmbedderWithClient(client)

		vector, err := e.EmbedText(ctx, "attention")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2}, vector)
		assert.Equal(t, []string{"attention"}, client.queries)
	})

	t.Run("blank text never reaches the provider", func(t *testing.T) {
		client := &stubEmbeddings{}
		e := newEmbedderWithClient(client)

		_, err := e.EmbedText(ctx, "   ")
		assert.ErrorIs(t, err, ai.ErrEmptyInput)
		assert.ErrorIs(t, err, core.ErrMalformedInput)
		assert.Empty(t, client.queries)
	})

	t.Run("provider failure", func(t *testing.T) {
		e := newEmbedderWithClient(&stubEmbeddings{err: errors.New("connection refused")})

		_, err := e.EmbedText(ctx, "attention")
		assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)
	})

	t.Run("empty vector is a failure", func(t *testing.T) {
		e := newEmbedderWithClient(&stubEmbeddings{})

		_, err := e.EmbedText(ctx, "attention")
		assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)
	})

	t.Run("deadline is kept in the chain", func(t *testing.T) {
		e := newEmbedderWithClient(&stubEmbeddings{err: context.DeadlineExceeded})

		_, err := e.EmbedText(ctx, "attention")
		assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	ctx := context.Background()

	t.Run("batch", func(t *testing.T) {
		client := &stubEmbeddings{vectors: [][]float32{{1, 0}, {0, 1}}}
		e := newEmbedderWithClient(client)

		vectors, err := e.EmbedTexts(ctx, []string{"a", "b"})
		require.NoError(t, err)
		assert.Len(t, vectors, 2)
		require.Len(t, client.batches, 1)
	})

	t.Run("empty batch", func(t *testing.T) {
		client := &stubEmbeddings{}
		e := newEmbedderWithClient(client)

		vectors, err := e.EmbedTexts(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, vectors)
		assert.Empty(t, client.batches)
	})

	t.Run("blank entry rejects the batch", func(t *testing.T) {
		client := &stubEmbeddings{}
		e := newEmbedderWithClient(client)

		_, err := e.EmbedTexts(ctx, []string{"a", ""})
		assert.ErrorIs(t, err, ai.ErrEmptyInput)
		assert.Empty(t, client.batches)
	})

	t.Run("count mismatch", func(t *testing.T) {
		e := newEmbedderWithClient(&stubEmbeddings{vectors: [][]float32{{1, 0}}})

		_, err := e.EmbedTexts(ctx, []string{"a", "b"})
		assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)
	})
}
