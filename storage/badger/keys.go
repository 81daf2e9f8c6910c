package badger

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/poiesic/colloquy/core"
)

// Key prefixes for different data types
const (
	chunkPrefix        = "chunk:"
	chunkVectorPrefix  = "chunkvec:"
	chunkIDSeq         = "chunkseq"
	dimensionKey       = "meta:dim"
	documentPrefix     = "doc"
	documentNamePrefix = "docname:"
)

// makeChunkKey generates a key for a chunk by ID.
// Format: prefix + big-endian id, so iteration follows insertion order.
func makeChunkKey(id core.ID) []byte {
	return makeOrderedKey(chunkPrefix, id)
}

// makeChunkVectorKey generates a key for a chunk's embedding.
func makeChunkVectorKey(id core.ID) []byte {
	return makeOrderedKey(chunkVectorPrefix, id)
}

func makeOrderedKey(prefix string, id core.ID) []byte {
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDocumentKey generates a key for a document manifest entry by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentNameKey generates the name index key for a document.
// Names are folded to lower case so lookups are case-insensitive.
func makeDocumentNameKey(name string) []byte {
	return []byte(documentNamePrefix + strings.ToLower(strings.TrimSpace(name)))
}
