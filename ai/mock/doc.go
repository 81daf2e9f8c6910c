// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder,
// ai.IntentClassifier and ai.AIProvider for use in unit tests. The mocks run
// without external AI services and behave deterministically.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	classifier := mock.NewMockIntentClassifier()
//	classifier.ClassifyIntentFunc = func(ctx context.Context, req ai.ClassificationRequest) (*ai.ClassificationResult, error) {
//	    return &ai.ClassificationResult{Intent: "web_search", Confidence: 0.8}, nil
//	}
//
// # Default Behavior
//
//   - MockEmbedder: unit-length vectors seeded from the text hash
//   - MockIntentClassifier: pdf_query with confidence 0.9
//   - MockProvider: aggregates the two
package mock
