package ingestion

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/colloquy/core"
	"github.com/tmc/langchaingo/textsplitter"
)

// Chunking defaults. Sizes are in runes.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separators are tried in order: sentence boundaries, then words, then runes.
var separators = []string{". ", " ", ""}

// Page is the extracted text of one page. Number starts at 1.
type Page struct {
	Number int
	Text   string
}

// Document is a named sequence of pages ready for chunking.
type Document struct {
	Name  string
	Pages []Page
}

// ID returns the document's identifier, derived from its name.
func (d Document) ID() core.ID {
	return core.IDFromContent(d.Name)
}

// Chunker splits page text into overlapping chunks.
type Chunker struct {
	splitter textsplitter.TextSplitter
}

// NewChunker creates a chunker producing chunks of at most size runes with
// overlap runes shared between neighbours.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size %d, overlap %d", ErrInvalidChunkSize, size, overlap)
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(separators),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		),
	}, nil
}

// Split chunks every page of doc. Pages without text are skipped. Chunks are
// numbered from 1 within their page, and their offsets are byte offsets into
// the whitespace-normalized page text.
func (c *Chunker) Split(doc Document) ([]*core.Chunk, error) {
	if strings.TrimSpace(doc.Name) == "" {
		return nil, ErrUnnamedDocument
	}

	id := doc.ID()
	var chunks []*core.Chunk
	for _, page := range doc.Pages {
		text := core.NormalizeWhitespace(page.Text)
		if text == "" {
			continue
		}

		pieces, err := c.splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("splitting %s page %d: %w", doc.Name, page.Number, err)
		}

		pageChunks := make([]*core.Chunk, 0, len(pieces))
		from := 0
		for _, piece := range pieces {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			start := locate(text, piece, from)
			pageChunks = append(pageChunks, &core.Chunk{
				DocumentID:   id,
				DocumentName: doc.Name,
				Page:         page.Number,
				Text:         piece,
				StartOffset:  start,
				EndOffset:    start + len(piece),
			})
			from = start + 1
		}

		for i, chunk := range pageChunks {
			chunk.ChunkNum = i + 1
			chunk.TotalChunks = len(pageChunks)
		}
		chunks = append(chunks, pageChunks...)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoText, doc.Name)
	}
	return chunks, nil
}

// locate finds piece in text at or after from, falling back to the first
// occurrence anywhere. Pieces always come from text, so the fallback only
// matters if the splitter rewrites whitespace.
func locate(text, piece string, from int) int {
	if from > len(text) {
		from = len(text)
	}
	if i := strings.Index(text[from:], piece); i >= 0 {
		return from + i
	}
	if i := strings.Index(text, piece); i >= 0 {
		return i
	}
	return from
}
