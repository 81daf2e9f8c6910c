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


// Package ai provides abstractions for the AI services Colloquy depends on.
//
// Two capabilities are modeled:
//
//   - Embedder: turns text into vectors for semantic search
//   - IntentClassifier: asks a language model to route an ambiguous query
//
// AIProvider aggregates both for initialization and lifecycle management.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// interface types. Test constructors (mock.NewMockEmbedder,
// mock.NewMockIntentClassifier) return concrete types so tests can inject
// behavior and assert call counts.
//
// # Errors
//
// Implementations wrap failures with the sentinels in this package, which in
// turn wrap the core error kinds. ErrEmptyInput is a malformed-input error;
// ErrRateLimited is the only provider error worth one retry.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	result, err := provider.IntentClassifier().ClassifyIntent(ctx, ai.ClassificationRequest{Query: "latest Go release"})
package ai
