package agent

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/storage"
	"github.com/stretchr/testify/assert"
)

// fakeCatalog is an in-memory DocumentCatalog.
type fakeCatalog struct {
	docs      []*core.Document
	listCalls int
}

func newFakeCatalog(names ...string) *fakeCatalog {
	c := &fakeCatalog{}
	for _, name := range names {
		c.docs = append(c.docs, &core.Document{ID: core.IDFromContent(name), Name: name})
	}
	return c
}

func (c *fakeCatalog) FindDocumentByName(ctx context.Context, name string) (*core.Document, error) {
	for _, doc := range c.docs {
		if strings.EqualFold(doc.Name, name) {
			return doc, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (c *fakeCatalog) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	c.listCalls++
	return c.docs, nil
}

func TestExtractPage(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"what does page 4 say about attention", 4},
		{"summarize Page 12", 12},
		{"see p. 7 of the handbook", 7},
		{"page zero", 0},
		{"page 0 please", 0},
		{"how many pages are there", 0},
		{"what is attention", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, extractPage(tt.query))
		})
	}
}

func TestDocumentCandidates(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "in phrase",
			query: "What does attention mean in the transformer handbook?",
			want:  []string{"transformer handbook"},
		},
		{
			name:  "from phrase with year",
			query: "results from Attention Is All You Need (2017)",
			want:  []string{"Attention Is All You Need (2017)"},
		},
		{
			name:  "in phrase before page",
			query: "what is in handbook.pdf page 3",
			want:  []string{"handbook.pdf"},
		},
		{
			name:  "quoted paper",
			query: `summarize the paper "Scaling Laws"`,
			want:  []string{"Scaling Laws"},
		},
		{
			name:  "et al reference",
			query: "what did Vaswani et al. propose",
			want:  []string{"Vaswani et al."},
		},
		{
			name:  "no reference",
			query: "what is attention",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, documentCandidates(tt.query))
		})
	}
}

func TestNormalizeDocumentName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Attention_Is_All_You_Need (2017).pdf", "attention is all you need"},
		{"handbook.pdf", "handbook"},
		{"  Q3-Report [2024] ", "q3 report"},
		{"notes", "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeDocumentName(tt.in))
		})
	}
}

func TestNameMatches(t *testing.T) {
	assert.True(t, nameMatches("the transformer handbook", "Transformer_Handbook.pdf"))
	assert.True(t, nameMatches("Vaswani et al.", "vaswani-attention.pdf"))
	assert.False(t, nameMatches("transformer guide", "Transformer_Handbook.pdf"))
	assert.False(t, nameMatches("the", "the.pdf"))
}

func TestResolveFilter(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("exact document name", func(t *testing.T) {
		catalog := newFakeCatalog("handbook.pdf", "guide.pdf")
		filter := resolveFilter(ctx, "what is in handbook.pdf page 3", catalog, logger)
		assert.Equal(t, "handbook.pdf", filter.DocumentName)
		assert.Equal(t, 3, filter.Page)
		assert.Zero(t, catalog.listCalls)
	})

	t.Run("fuzzy document name", func(t *testing.T) {
		catalog := newFakeCatalog("Guide.pdf", "Transformer_Handbook.pdf")
		filter := resolveFilter(ctx, "what does attention mean in the transformer handbook?", catalog, logger)
		assert.Equal(t, "Transformer_Handbook.pdf", filter.DocumentName)
		assert.Zero(t, filter.Page)
	})

	t.Run("unknown document leaves name unset", func(t *testing.T) {
		catalog := newFakeCatalog("handbook.pdf")
		filter := resolveFilter(ctx, "what is attention in transformers?", catalog, logger)
		assert.True(t, filter.IsZero())
	})

	t.Run("page only without catalog", func(t *testing.T) {
		filter := resolveFilter(ctx, "what is in handbook.pdf page 2", nil, logger)
		assert.Empty(t, filter.DocumentName)
		assert.Equal(t, 2, filter.Page)
	})
}
