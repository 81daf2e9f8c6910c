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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/colloquy/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxParseAttempts = 3

// IntentClassifier implements ai.IntentClassifier using OpenAI-compatible chat APIs.
type IntentClassifier struct {
	client       llms.Model
	historyTurns int
	logger       *slog.Logger
}

// classification is the JSON shape requested from the model.
type classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// newIntentClassifier is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newIntentClassifier(config *ai.Config) (*IntentClassifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ClassifierHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.ClassifierModel),
	)
	if err != nil {
		return nil, err
	}

	return newIntentClassifierWithModel(client, config.HistoryTurns), nil
}

// newIntentClassifierWithModel wraps any langchaingo model. Tests use it with llms/fake.
func newIntentClassifierWithModel(client llms.Model, historyTurns int) *IntentClassifier {
	return &IntentClassifier{
		client:       client,
		historyTurns: historyTurns,
		logger:       slog.Default().With("component", "openai-classifier"),
	}
}

// NewIntentClassifier creates a new intent classifier using the provided configuration.
//
// Returns ai.IntentClassifier interface to enforce abstraction.
func NewIntentClassifier(config *ai.Config) (ai.IntentClassifier, error) {
	return newIntentClassifier(config)
}

// ClassifyIntent asks the model to route the query. It makes one model call
// per parse attempt; a provider error ends the call immediately.
func (c *IntentClassifier) ClassifyIntent(ctx context.Context, req ai.ClassificationRequest) (*ai.ClassificationResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ai.ErrEmptyInput
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSystemPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildUserPrompt(query, boundHistory(req.History, c.historyTurns))),
			},
		},
	}

	var result classification
	var lastErr error
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, mapProviderError(ai.ErrClassificationFailed, err)
		}

		if len(response.Choices) < 1 {
			lastErr = fmt.Errorf("%w: no choices returned", ai.ErrClassificationFailed)
			c.logger.Debug("no choices returned from model", "attempt", attempt+1)
			continue
		}

		responseText := cleanResponse(response.Choices[0].Content)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			c.logger.Warn("error parsing classifier response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		result.Intent = normalizeIntent(result.Intent)
		if !slices.Contains(ai.ClassifiableIntents, result.Intent) {
			lastErr = fmt.Errorf("unknown intent %q", result.Intent)
			c.logger.Warn("classifier returned unknown intent", "attempt", attempt+1, "intent", result.Intent)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		c.logger.Error("failed to parse classifier response after retries", "err", lastErr)
		return nil, fmt.Errorf("%w: %w", ai.ErrClassificationFailed, lastErr)
	}

	c.logger.Debug("classified query", "intent", result.Intent, "confidence", result.Confidence)

	return &ai.ClassificationResult{
		Intent:     result.Intent,
		Confidence: clamp01(result.Confidence),
		Reasoning:  result.Reasoning,
	}, nil
}

// boundHistory keeps the most recent n messages.
func boundHistory(history []ai.HistoryMessage, n int) []ai.HistoryMessage {
	if n <= 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
