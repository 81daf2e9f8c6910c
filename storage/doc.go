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


// Package storage provides the storage abstraction layer for colloquy.
//
// This package defines repository interfaces that decouple the chunk store
// from retrieval and ingestion logic.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces:
//
//	chunks, docs, backend, err := badger.NewMemoryRepositories()  // storage.ChunkRepository, storage.DocumentRepository
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Architecture
//
//   - ChunkRepository: append-only chunk text plus one embedding per chunk
//   - DocumentRepository: document manifest with the current generation
//
// Re-ingesting a document writes a new generation of chunks and then moves
// the manifest forward. Scans skip chunks from older generations, so a
// document is never half-replaced from a reader's point of view.
//
// # Serialization
//
// Chunks and documents are stored as JSON. Vectors are packed little-endian
// float32 values under their own keys so scans can decode them without
// touching chunk text.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
