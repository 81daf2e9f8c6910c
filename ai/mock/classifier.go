package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/colloquy/ai"
)

// MockIntentClassifier is a test double for ai.IntentClassifier.
type MockIntentClassifier struct {
	// ClassifyIntentFunc is called by ClassifyIntent if set.
	// If nil, every query classifies as pdf_query with confidence 0.9.
	ClassifyIntentFunc func(ctx context.Context, req ai.ClassificationRequest) (*ai.ClassificationResult, error)

	callCount atomic.Int64
}

// NewMockIntentClassifier creates a classifier mock with default behavior.
func NewMockIntentClassifier() *MockIntentClassifier {
	return &MockIntentClassifier{}
}

// ClassifyIntent returns the injected result or the default pdf_query routing.
func (m *MockIntentClassifier) ClassifyIntent(ctx context.Context, req ai.ClassificationRequest) (*ai.ClassificationResult, error) {
	m.callCount.Add(1)

	if m.ClassifyIntentFunc != nil {
		return m.ClassifyIntentFunc(ctx, req)
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, ai.ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &ai.ClassificationResult{
		Intent:     "pdf_query",
		Confidence: 0.9,
		Reasoning:  "mock classification",
	}, nil
}

// CallCount returns the number of ClassifyIntent calls.
func (m *MockIntentClassifier) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockIntentClassifier) Reset() {
	m.callCount.Store(0)
	m.ClassifyIntentFunc = nil
}
