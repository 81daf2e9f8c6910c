package intent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/colloquy/ai"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/followup"
	"github.com/poiesic/colloquy/retry"
)

const (
	// DefaultModelTimeout bounds the model call, retry included.
	DefaultModelTimeout = 10 * time.Second

	// DefaultHistoryTurns is how many prior turns the model sees.
	DefaultHistoryTurns = 6
)

// ModelRule asks a language model to classify the message. It is the only
// classifier that makes an external call.
type ModelRule struct {
	classifier   ai.IntentClassifier
	timeout      time.Duration
	historyTurns int
	policy       retry.Policy
	logger       *slog.Logger
}

// ModelOption configures a ModelRule.
type ModelOption func(*ModelRule) error

// WithModelTimeout bounds the model call.
// Default is DefaultModelTimeout.
func WithModelTimeout(timeout time.Duration) ModelOption {
	return func(m *ModelRule) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}
		m.timeout = timeout
		return nil
	}
}

// WithHistoryTurns sets how many prior turns the model sees.
// Default is DefaultHistoryTurns.
func WithHistoryTurns(n int) ModelOption {
	return func(m *ModelRule) error {
		if n < 0 {
			return ErrInvalidHistoryTurns
		}
		m.historyTurns = n
		return nil
	}
}

// WithRetryPolicy overrides the retry policy.
// Default is retry.Once.
func WithRetryPolicy(policy retry.Policy) ModelOption {
	return func(m *ModelRule) error {
		if policy.MaxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		m.policy = policy
		return nil
	}
}

// WithModelLogger sets a custom logger.
// Default is slog.Default().
func WithModelLogger(logger *slog.Logger) ModelOption {
	return func(m *ModelRule) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger.With("component", "intent-model")
		return nil
	}
}

// NewModelRule creates a model rule backed by classifier.
func NewModelRule(classifier ai.IntentClassifier, opts ...ModelOption) (*ModelRule, error) {
	if classifier == nil {
		return nil, ErrClassifierRequired
	}

	m := &ModelRule{
		classifier:   classifier,
		timeout:      DefaultModelTimeout,
		historyTurns: DefaultHistoryTurns,
		policy:       retry.Once,
		logger:       slog.Default().With("component", "intent-model"),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *ModelRule) Name() string { return SourceModel }

// Classify always decides or fails. A follow_up answer is only kept when a
// retrieval agent answered the previous turn; otherwise it becomes pdf_query.
func (m *ModelRule) Classify(ctx context.Context, req Request) (core.IntentDecision, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	classification := ai.ClassificationRequest{
		Query:   req.Query,
		History: toHistory(req.History, m.historyTurns),
	}

	var result *ai.ClassificationResult
	err := retry.Do(ctx, m.policy, func(ctx context.Context) error {
		var err error
		result, err = m.classifier.ClassifyIntent(ctx, classification)
		return err
	})
	if err != nil {
		m.logger.Error("model classification failed", "err", err)
		return core.IntentDecision{}, false, fmt.Errorf("%w: %w", core.ErrClassificationFailure, err)
	}

	intent := core.Intent(result.Intent)
	if !intent.Valid() || intent == core.IntentGreeting {
		return core.IntentDecision{}, false, fmt.Errorf("%w: %w %q", core.ErrClassificationFailure, ErrUnexpectedIntent, result.Intent)
	}

	decision := core.IntentDecision{
		Intent:     intent,
		Confidence: result.Confidence,
		Reasoning:  result.Reasoning,
	}

	switch intent {
	case core.IntentFollowUp:
		agent := followup.PreviousAgent(req.History)
		if agent == "" {
			decision.Intent = core.IntentPDFQuery
			decision.Reasoning = appendReason(decision.Reasoning, "no previous agent to follow up, treated as a document query")
			break
		}
		decision.IsFollowUp = true
		decision.TargetAgent = agent
	case core.IntentClarificationNeeded:
		decision.IsAmbiguous = true
		decision.Clarification = "I'm not sure what you're asking."
		decision.ClarificationQuestions = []string{"Could you add a little more detail about what you're looking for?"}
	}

	return decision, true, nil
}

// toHistory converts the most recent n turns for the model.
func toHistory(turns []core.Turn, n int) []ai.HistoryMessage {
	if n <= 0 || len(turns) == 0 {
		return nil
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	history := make([]ai.HistoryMessage, len(turns))
	for i, turn := range turns {
		history[i] = ai.HistoryMessage{Role: string(turn.Role), Text: turn.Text}
	}
	return history
}

func appendReason(reasoning, note string) string {
	if reasoning == "" {
		return note
	}
	return reasoning + "; " + note
}
