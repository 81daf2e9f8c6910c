package badger

import (
	"context"
	"testing"

	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRepository(t *testing.T) {
	_, docs := setupRepos(t)
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		doc := &core.Document{ID: core.IDFromContent("Manual.pdf"), Name: "Manual.pdf", Generation: 1, Pages: 12, Chunks: 40}
		require.NoError(t, docs.SaveDocument(ctx, doc))
		assert.False(t, doc.UpdatedAt.IsZero())

		got, err := docs.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Manual.pdf", got.Name)
		assert.Equal(t, uint64(1), got.Generation)
	})

	t.Run("find by name is case-insensitive", func(t *testing.T) {
		got, err := docs.FindDocumentByName(ctx, "manual.PDF")
		require.NoError(t, err)
		assert.Equal(t, 12, got.Pages)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := docs.GetDocument(ctx, 12345)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = docs.FindDocumentByName(ctx, "nope.pdf")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("list ordered by name", func(t *testing.T) {
		require.NoError(t, docs.SaveDocument(ctx, &core.Document{ID: core.IDFromContent("appendix.pdf"), Name: "appendix.pdf", Generation: 1}))

		list, err := docs.ListDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "appendix.pdf", list[0].Name)
		assert.Equal(t, "Manual.pdf", list[1].Name)
	})
}
