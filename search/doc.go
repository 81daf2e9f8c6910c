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


// Package search provides semantic similarity search over stored chunks.
//
// Rank is the pure ranking function: cosine similarity against every
// candidate, a score threshold, a result limit, and a deterministic order
// (score descending, then chunk ID ascending). Engine wires Rank to an
// Embedder and a storage.ChunkRepository and reports each stage to an
// optional SearchMonitor.
package search
