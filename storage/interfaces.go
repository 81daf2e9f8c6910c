package storage

import (
	"context"
	"strings"

	"github.com/poiesic/colloquy/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction runs fn with a transaction carried in ctx. Repository
	// calls made with that ctx share it: they commit together when fn
	// returns nil and are discarded when it returns an error.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// ChunkFilter narrows the chunks visited by a scan. Zero fields match everything.
type ChunkFilter struct {
	DocumentName string
	Page         int
}

// IsZero reports whether the filter matches every chunk.
func (f ChunkFilter) IsZero() bool {
	return f.DocumentName == "" && f.Page == 0
}

// Matches reports whether chunk passes the filter.
// Document names compare case-insensitively.
func (f ChunkFilter) Matches(chunk *core.Chunk) bool {
	if f.Page > 0 && chunk.Page != f.Page {
		return false
	}
	if f.DocumentName != "" && !strings.EqualFold(strings.TrimSpace(f.DocumentName), chunk.DocumentName) {
		return false
	}
	return true
}

// ChunkVisitor receives each chunk and its embedding during a scan.
// Returning an error stops the scan and the error is returned by the scan.
type ChunkVisitor func(chunk *core.Chunk, vector []float32) error

// ChunkRepository stores chunks and their embedding vectors.
//
// The store is append-only: chunks are never edited. Every vector in the
// collection has the same dimension, recorded on the first write.
type ChunkRepository interface {
	Repository

	// AddChunks appends chunks with their vectors (vectors[i] belongs to chunks[i]).
	// IDs are assigned from a sequence so they record insertion order, and
	// InsertedAt is set. Returns ErrDimensionMismatch when a vector's length
	// differs from the collection dimension; nothing is written in that case.
	AddChunks(ctx context.Context, chunks []*core.Chunk, vectors [][]float32) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// ScanChunks visits every current chunk matching filter in ID order.
	// Only chunks of a document's current generation are visited, so chunks
	// superseded by re-ingestion and chunks of a generation still being
	// written are both skipped.
	ScanChunks(ctx context.Context, filter ChunkFilter, fn ChunkVisitor) error

	// CountChunks returns the number of current chunks.
	CountChunks(ctx context.Context) (int, error)

	// Dimension returns the collection's vector dimension, or 0 before the first write.
	Dimension(ctx context.Context) (int, error)

	// ResetDimension records a new collection dimension. It is used when
	// every vector is about to be replaced by a different embedding model.
	ResetDimension(ctx context.Context, dim int) error

	// PutVectors replaces the vectors of existing chunks.
	// Returns ErrNotFound for an unknown chunk and ErrDimensionMismatch
	// for a vector of the wrong length.
	PutVectors(ctx context.Context, ids []core.ID, vectors [][]float32) error

	// PruneSuperseded deletes chunks whose document has moved to a newer generation.
	// Returns the number of chunks removed.
	PruneSuperseded(ctx context.Context) (int, error)
}

// DocumentRepository tracks ingested documents and their current generation.
type DocumentRepository interface {
	Repository

	// SaveDocument creates or replaces a document manifest entry.
	SaveDocument(ctx context.Context, doc *core.Document) error

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// FindDocumentByName looks a document up by case-insensitive name.
	// Returns ErrNotFound if no document matches.
	FindDocumentByName(ctx context.Context, name string) (*core.Document, error)

	// ListDocuments returns all documents ordered by name.
	ListDocuments(ctx context.Context) ([]*core.Document, error)
}
