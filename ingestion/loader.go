package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// LoadFile extracts the pages of a PDF or plain text file. Text and
// markdown files are a single page. The document is named after the file.
func LoadFile(ctx context.Context, path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Document{}, err
	}

	var loader documentloaders.Loader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		loader = documentloaders.NewPDF(f, info.Size())
	case ".txt", ".md", ".text":
		loader = documentloaders.NewText(f)
	default:
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(path))
	}

	docs, err := loader.Load(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("loading %s: %w", filepath.Base(path), err)
	}

	return Document{
		Name:  filepath.Base(path),
		Pages: pages(docs),
	}, nil
}

// pages converts loader output to pages, numbering from the loader's
// "page" metadata when present.
func pages(docs []schema.Document) []Page {
	out := make([]Page, 0, len(docs))
	for i, doc := range docs {
		number := i + 1
		if n, ok := doc.Metadata["page"].(int); ok && n > 0 {
			number = n
		}
		out = append(out, Page{Number: number, Text: doc.PageContent})
	}
	return out
}
