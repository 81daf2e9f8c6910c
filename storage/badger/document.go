// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend is closed by its owner.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveDocument persists a document and its name index entry.
func (r *DocumentRepository) SaveDocument(ctx context.Context, doc *core.Document) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		doc.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeDocumentKey(doc.ID), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Set(makeDocumentNameKey(doc.Name), storage.MarshalID(doc.ID)); err != nil {
			return err
		}
		return nil
	}, true)
}

// GetDocument retrieves a document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		doc, err = readDocument(tx, id)
		return err
	}, false)
	return doc, err
}

// FindDocumentByName looks a document up through the name index.
func (r *DocumentRepository) FindDocumentByName(ctx context.Context, name string) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		data, err := getValue(tx, makeDocumentNameKey(name))
		if err != nil {
			return err
		}
		if data == nil {
			return storage.ErrNotFound
		}
		id, err := storage.UnmarshalID(data)
		if err != nil {
			return err
		}
		doc, err = readDocument(tx, id)
		return err
	}, false)
	return doc, err
}

// ListDocuments returns every document ordered by name.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var docs []*core.Document
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
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
				docs = append(docs, doc)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(docs, func(a, b *core.Document) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return docs, nil
}

func readDocument(tx *badger.Txn, id core.ID) (*core.Document, error) {
	data, err := getValue(tx, makeDocumentKey(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, storage.ErrNotFound
	}
	return storage.UnmarshalDocument(data)
}
