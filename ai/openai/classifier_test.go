package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/colloquy/ai"
	"github.com/poiesic/colloquy/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
)

// failingModel returns the configured error from every call.
type failingModel struct {
	err   error
	calls int
}

func (m *failingModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	return nil, m.err
}

func (m *failingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", m.err
}

func TestClassifyIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("parses valid response", func(t *testing.T) {
		model := fake.NewFakeLLM([]string{`{"intent": "web_search", "confidence": 0.82, "reasoning": "asks about news"}`})
		c := newIntentClassifierWithModel(model, 6)

		result, err := c.ClassifyIntent(ctx, ai.ClassificationRequest{Query: "latest Go release"})
		require.NoError(t, err)
		assert.Equal(t, "web_search", result.Intent)
		assert.InDelta(t, 0.82, result.Confidence, 1e-9)
		assert.Equal(t, "asks about news", result.Reasoning)
	})

	t.Run("strips code fences and normalizes label", func(t *testing.T) {
		model := fake.NewFakeLLM([]string{"```json\n{\"intent\": \"PDF Query\", \"confidence\": 0.7, \"reasoning\": \"docs\"}\n```"})
		c := newIntentClassifierWithModel(model, 6)

		result, err := c.ClassifyIntent(ctx, ai.ClassificationRequest{Query: "what does chapter 2 say"})
		require.NoError(t, err)
		assert.Equal(t, "pdf_query", result.Intent)
	})

	t.Run("clamps confidence", func(t *testing.T) {
		model := fake.NewFakeLLM([]string{`{"intent": "follow_up", "confidence": 3.5, "reasoning": "x"}`})
		c := newIntentClassifierWithModel(model, 6)

		result, err := c.ClassifyIntent(ctx, ai.ClassificationRequest{Query: "and then?"})
		require.NoError(t, err)
		assert.Equal(t, 1.0, result.Confidence)
	})

	t.Run("retries after unparseable response", func(t *testing.T) {
		model := fake.NewFakeLLM([]string{
			"I think this is a web search",
			`{"intent": "web_search", "confidence": 0.6, "reasoning": "recency"}`,
		})
		c := newIntentClassifierWithModel(model, 6)

		result, err := c.ClassifyIntent(ctx, ai.ClassificationRequest{Query: "stock price today"})
		require.NoError(t, err)
		assert.Equal(t, "web_search", result.Intent)
	})

	t.Run("unknown intent fails after retries", func(t *testing.T) {
		model := fake.NewFakeLLM([]string{`{"intent": "weather", "confidence": 0.9, "reasoning": "x"}`})
		c := newIntentClassifierWithModel(model, 6)

		_, err := c.ClassifyIntent(ctx, ai.ClassificationRequest{Query: "is it raining"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ai.ErrClassificationFailed)
		assert.ErrorIs(t, err, core.ErrClassificationFailure)
	})

	t.Run("blank query is malformed input", func(t *testing.T) {
		model := &failingModel{err: errors.New("should not be called")}
		c := newIntentClassifierWithModel(model, 6)

		_, err := c.ClassifyIntent(ctx, ai.ClassificationRequest{Query: "   "})
		assert.ErrorIs(t, err, ai.ErrEmptyInput)
		assert.ErrorIs(t, err, core.ErrMalformedInput)
		assert.Zero(t, model.calls)
	})

	t.Run("provider error is not retried", func(t *testing.T) {
		model := &failingModel{err: errors.New("connection refused")}
		c := newIntentClassifierWithModel(model, 6)

		_, err := c.ClassifyIntent(ctx, ai.ClassificationRequest{Query: "hello there friend"})
		assert.ErrorIs(t, err, ai.ErrClassificationFailed)
		assert.Equal(t, 1, model.calls)
	})

	t.Run("rate limit maps to ErrRateLimited", func(t *testing.T) {
		model := &failingModel{err: errors.New("API returned unexpected status code: 429: Too Many Requests")}
		c := newIntentClassifierWithModel(model, 6)

		_, err := c.ClassifyIntent(ctx, ai.ClassificationRequest{Query: "latest news"})
		assert.ErrorIs(t, err, ai.ErrRateLimited)
		assert.Equal(t, core.KindProviderRateLimited, core.KindOf(err))
	})
}

func TestBoundHistory(t *testing.T) {
	history := []ai.HistoryMessage{
		{Role: "user", Text: "1"},
		{Role: "system", Text: "2"},
		{Role: "user", Text: "3"},
	}

	assert.Len(t, boundHistory(history, 6), 3)
	assert.Equal(t, []ai.HistoryMessage{{Role: "system", Text: "2"}, {Role: "user", Text: "3"}}, boundHistory(history, 2))
	assert.Nil(t, boundHistory(history, 0))
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := buildUserPrompt("and the second one?", []ai.HistoryMessage{
		{Role: "user", Text: "What is attention?"},
		{Role: "system", Text: "Here's what I found:"},
	})

	assert.Contains(t, prompt, "user: What is attention?")
	assert.Contains(t, prompt, "system: Here's what I found:")
	assert.Contains(t, prompt, "Message to classify: and the second one?")

	assert.NotContains(t, buildUserPrompt("hi", nil), "Conversation so far")
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripFences(`  {"a":1}  `))
}

func TestRepairJSON(t *testing.T) {
	repaired := repairJSON(`{"intent": "web_search", confidence": 0.5, "reasoning": "x"}`)
	assert.Equal(t, `{"intent": "web_search", "confidence": 0.5, "reasoning": "x"}`, repaired)
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `{"intent":"pdf_query"}`, `{"intent":"pdf_query"}`},
		{"fenced", "```json\n{\"intent\":\"pdf_query\"}\n```", `{"intent":"pdf_query"}`},
		{"preamble", `Sure! Here is the JSON: {"intent":"pdf_query"} Hope that helps.`, `{"intent":"pdf_query"}`},
		{"first key unquoted", `{intent": "greeting"}`, `{"intent": "greeting"}`},
		{"no object", `not json`, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanResponse(tt.input))
		})
	}
}
