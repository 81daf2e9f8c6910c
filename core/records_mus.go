package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted records. Field order is the wire
// order; append new fields at the end.
var (
	IDMUS       = idMUS{}
	ChunkMUS    = chunkMUS{}
	DocumentMUS = documentMUS{}
)

var (
	_ mus.Serializer[ID]       = IDMUS
	_ mus.Serializer[Chunk]    = ChunkMUS
	_ mus.Serializer[Document] = DocumentMUS
)

// IDs are fixed width so stored values have a known size.
type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) (n int) {
	return raw.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (id ID, n int, err error) {
	v, n, err := raw.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return raw.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return raw.Uint64.Skip(bs)
}

// timeMUS stores Unix nanoseconds in UTC. The zero time is stored as 0.
type timeMUS struct{}

func (timeMUS) Marshal(t time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(unixNano(t), bs)
}

func (timeMUS) Unmarshal(bs []byte) (t time.Time, n int, err error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || v == 0 {
		return time.Time{}, n, err
	}
	return time.Unix(0, v).UTC(), n, nil
}

func (timeMUS) Size(t time.Time) int {
	return varint.Int64.Size(unixNano(t))
}

func (timeMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.ID, bs)
	n += IDMUS.Marshal(c.DocumentID, bs[n:])
	n += ord.String.Marshal(c.DocumentName, bs[n:])
	n += varint.Int.Marshal(c.Page, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += varint.Int.Marshal(c.StartOffset, bs[n:])
	n += varint.Int.Marshal(c.EndOffset, bs[n:])
	n += varint.Int.Marshal(c.ChunkNum, bs[n:])
	n += varint.Int.Marshal(c.TotalChunks, bs[n:])
	n += varint.Uint64.Marshal(c.Generation, bs[n:])
	n += timeMUS{}.Marshal(c.InsertedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	n, err = unmarshalFields(bs,
		into[ID](IDMUS, &c.ID),
		into[ID](IDMUS, &c.DocumentID),
		into[string](ord.String, &c.DocumentName),
		into[int](varint.Int, &c.Page),
		into[string](ord.String, &c.Text),
		into[int](varint.Int, &c.StartOffset),
		into[int](varint.Int, &c.EndOffset),
		into[int](varint.Int, &c.ChunkNum),
		into[int](varint.Int, &c.TotalChunks),
		into[uint64](varint.Uint64, &c.Generation),
		into[time.Time](timeMUS{}, &c.InsertedAt),
	)
	return c, n, err
}

func (chunkMUS) Size(c Chunk) (size int) {
	size = IDMUS.Size(c.ID)
	size += IDMUS.Size(c.DocumentID)
	size += ord.String.Size(c.DocumentName)
	size += varint.Int.Size(c.Page)
	size += ord.String.Size(c.Text)
	size += varint.Int.Size(c.StartOffset)
	size += varint.Int.Size(c.EndOffset)
	size += varint.Int.Size(c.ChunkNum)
	size += varint.Int.Size(c.TotalChunks)
	size += varint.Uint64.Size(c.Generation)
	return size + timeMUS{}.Size(c.InsertedAt)
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.ID, bs)
	n += ord.String.Marshal(d.Name, bs[n:])
	n += varint.Uint64.Marshal(d.Generation, bs[n:])
	n += varint.Int.Marshal(d.Pages, bs[n:])
	n += varint.Int.Marshal(d.Chunks, bs[n:])
	n += timeMUS{}.Marshal(d.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	n, err = unmarshalFields(bs,
		into[ID](IDMUS, &d.ID),
		into[string](ord.String, &d.Name),
		into[uint64](varint.Uint64, &d.Generation),
		into[int](varint.Int, &d.Pages),
		into[int](varint.Int, &d.Chunks),
		into[time.Time](timeMUS{}, &d.UpdatedAt),
	)
	return d, n, err
}

func (documentMUS) Size(d Document) (size int) {
	size = IDMUS.Size(d.ID)
	size += ord.String.Size(d.Name)
	size += varint.Uint64.Size(d.Generation)
	size += varint.Int.Size(d.Pages)
	size += varint.Int.Size(d.Chunks)
	return size + timeMUS{}.Size(d.UpdatedAt)
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type fieldUnmarshaller func(bs []byte) (n int, err error)

// into decodes one field with ser and stores it in dst.
func into[T any](ser mus.Serializer[T], dst *T) fieldUnmarshaller {
	return func(bs []byte) (int, error) {
		v, n, err := ser.Unmarshal(bs)
		if err != nil {
			return n, err
		}
		*dst = v
		return n, nil
	}
}

// unmarshalFields runs fields in wire order and stops at the first error.
func unmarshalFields(bs []byte, fields ...fieldUnmarshaller) (n int, err error) {
	for _, field := range fields {
		m, err := field(bs[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
