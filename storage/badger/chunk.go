package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence

	// writes serializes writers so the dimension check and the write that
	// records it can't interleave.
	writes sync.Mutex
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddChunks appends chunks and their vectors in a single transaction.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks []*core.Chunk, vectors [][]float32) ([]*core.Chunk, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunks, %d vectors", storage.ErrLengthMismatch, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return chunks, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.writes.Lock()
	defer r.writes.Unlock()

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}
		if dim == 0 {
			dim = len(vectors[0])
			if err := tx.Set([]byte(dimensionKey), encodeDimension(dim)); err != nil {
				return err
			}
		}
		for i, vector := range vectors {
			if len(vector) != dim {
				return fmt.Errorf("%w: chunk %d has %d values, collection has %d", storage.ErrDimensionMismatch, i, len(vector), dim)
			}
		}

		now := time.Now().UTC()
		for i, chunk := range chunks {
			if err := core.ValidateChunk(chunk); err != nil {
				return err
			}

			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			chunk.ID = core.ID(nextID)
			chunk.InsertedAt = now

			if err := tx.Set(makeChunkKey(chunk.ID), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
			if err := tx.Set(makeChunkVectorKey(chunk.ID), storage.MarshalVector(vectors[i])); err != nil {
				return err
			}
		}
		return nil
	}, true)
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		data, err := getValue(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if data == nil {
			return storage.ErrNotFound
		}
		result, err = storage.UnmarshalChunk(data)
		return err
	}, false)
	return result, err
}

// ScanChunks visits current chunks in ID order.
func (r *ChunkRepository) ScanChunks(ctx context.Context, filter storage.ChunkFilter, fn storage.ChunkVisitor) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		generations, err := readGenerations(tx)
		if err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if !current(chunk, generations) || !filter.Matches(chunk) {
				continue
			}

			data, err := getValue(tx, makeChunkVectorKey(chunk.ID))
			if err != nil {
				return err
			}
			vector, err := storage.UnmarshalVector(data)
			if err != nil {
				return err
			}
			if err := fn(chunk, vector); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// CountChunks returns the number of current chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := r.ScanChunks(ctx, storage.ChunkFilter{}, func(*core.Chunk, []float32) error {
		count++
		return nil
	})
	return count, err
}

// Dimension returns the recorded collection dimension.
func (r *ChunkRepository) Dimension(ctx context.Context) (int, error) {
	var dim int
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		dim, err = readDimension(tx)
		return err
	}, false)
	return dim, err
}

// ResetDimension records a new collection dimension.
func (r *ChunkRepository) ResetDimension(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("%w: dimension must be positive", storage.ErrInvalidQuery)
	}

	r.writes.Lock()
	defer r.writes.Unlock()

	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		if err := tx.Set([]byte(dimensionKey), encodeDimension(dim)); err != nil {
			return err
		}
		return nil
	}, true)
}

// PutVectors replaces the vectors of existing chunks.
func (r *ChunkRepository) PutVectors(ctx context.Context, ids []core.ID, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("%w: %d ids, %d vectors", storage.ErrLengthMismatch, len(ids), len(vectors))
	}

	r.writes.Lock()
	defer r.writes.Unlock()

	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}
		for i, id := range ids {
			if dim != 0 && len(vectors[i]) != dim {
				return fmt.Errorf("%w: chunk %d has %d values, collection has %d", storage.ErrDimensionMismatch, id, len(vectors[i]), dim)
			}
			if _, err := tx.Get(makeChunkKey(id)); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: chunk %d", storage.ErrNotFound, id)
				}
				return err
			}
			if err := tx.Set(makeChunkVectorKey(id), storage.MarshalVector(vectors[i])); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// PruneSuperseded deletes chunks and vectors from older document generations.
func (r *ChunkRepository) PruneSuperseded(ctx context.Context) (int, error) {
	r.writes.Lock()
	defer r.writes.Unlock()

	var keys [][]byte
	removed := 0
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		generations, err := readGenerations(tx)
		if err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if superseded(chunk, generations) {
				keys = append(keys, makeChunkKey(chunk.ID), makeChunkVectorKey(chunk.ID))
				removed++
			}
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}

	if err := r.backend.deleteKeys(keys); err != nil {
		return 0, err
	}
	if removed > 0 {
		r.backend.logger.Debug("pruned superseded chunks", "count", removed)
	}
	return removed, nil
}

// readGenerations maps each document to its current generation.
func readGenerations(tx *badger.Txn) (map[core.ID]uint64, error) {
	generations := make(map[core.ID]uint64)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(documentPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		err := iter.Item().Value(func(val []byte) error {
			doc, err := storage.UnmarshalDocument(val)
			if err != nil {
				return err
			}
			generations[doc.ID] = doc.Generation
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return generations, nil
}

// current reports whether the chunk belongs to its document's current
// generation. Chunks of a generation still being written stay hidden until
// the manifest moves forward. Chunks whose document has no manifest entry
// are always current.
func current(chunk *core.Chunk, generations map[core.ID]uint64) bool {
	gen, ok := generations[chunk.DocumentID]
	return !ok || chunk.Generation == gen
}

// superseded reports whether a newer generation of the chunk's document exists.
func superseded(chunk *core.Chunk, generations map[core.ID]uint64) bool {
	gen, ok := generations[chunk.DocumentID]
	return ok && chunk.Generation < gen
}

func readDimension(tx *badger.Txn) (int, error) {
	data, err := getValue(tx, []byte(dimensionKey))
	if err != nil || data == nil {
		return 0, err
	}
	if len(data) < 8 {
		return 0, storage.ErrTruncatedData
	}
	return int(binary.BigEndian.Uint64(data)), nil
}

func encodeDimension(dim int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(dim))
	return buf
}
