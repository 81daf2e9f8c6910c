package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns ErrEmptyInput for blank text and ErrEmbeddingFailed when the
	// provider fails or returns nothing. A zero vector is never returned
	// in place of an error.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// IntentClassifier asks a language model to route a query.
// Implementations must be thread-safe for concurrent use.
type IntentClassifier interface {
	// ClassifyIntent classifies the query given bounded conversation history.
	// The result intent is one of ClassifiableIntents.
	ClassifyIntent(ctx context.Context, req ClassificationRequest) (*ClassificationResult, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// IntentClassifier returns the model-based intent classifier.
	IntentClassifier() IntentClassifier

	// Close releases resources held by the provider and its services.
	Close() error
}
