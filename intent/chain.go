package intent

import (
	"context"
	"log/slog"

	"github.com/poiesic/colloquy/core"
)

// Rephrase is asked when no classifier could route the message.
const Rephrase = "I'm having trouble understanding your request. Could you please rephrase?"

// SourceFallback marks a decision made because every classifier deferred.
const SourceFallback = "fallback"

// Request is the input to a classification.
type Request struct {
	Query          string
	History        []core.Turn
	ForceWebSearch bool

	// Failure is set by the chain once a classifier has returned an error.
	// Recovery classifiers only act when it is set.
	Failure error
}

// Classifier is one step of a Chain. It either decides the intent or
// defers (decided == false) to the next classifier. A returned error also
// defers, and is recorded in Request.Failure for the classifiers after it.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, req Request) (decision core.IntentDecision, decided bool, err error)
}

// Chain runs classifiers in order until one decides.
type Chain struct {
	classifiers []Classifier
	logger      *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "intent")
		return nil
	}
}

// NewChain creates a chain that consults classifiers in the given order.
func NewChain(classifiers []Classifier, opts ...Option) (*Chain, error) {
	if len(classifiers) == 0 {
		return nil, ErrEmptyChain
	}

	c := &Chain{
		classifiers: classifiers,
		logger:      slog.Default().With("component", "intent"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// DefaultClassifiers returns the standard classification order around model.
func DefaultClassifiers(model *ModelRule) []Classifier {
	return []Classifier{
		NewGreetingRule(),
		NewForceWebRule(),
		NewFollowUpRule(nil),
		NewAmbiguityRule(nil),
		model,
		NewKeywordRule(),
	}
}

// Decide classifies req. Classifier errors are logged and recovered; only
// cancellation of ctx is returned.
func (c *Chain) Decide(ctx context.Context, req Request) (core.IntentDecision, error) {
	for _, classifier := range c.classifiers {
		if err := ctx.Err(); err != nil {
			return core.IntentDecision{}, err
		}

		decision, decided, err := classifier.Classify(ctx, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return core.IntentDecision{}, ctxErr
			}
			c.logger.Warn("classifier failed, continuing with the next one",
				"classifier", classifier.Name(),
				"err", err)
			req.Failure = err
			continue
		}
		if !decided {
			continue
		}

		if decision.Source == "" {
			decision.Source = classifier.Name()
		}
		c.logger.Debug("intent decided",
			"intent", decision.Intent,
			"source", decision.Source,
			"confidence", decision.Confidence)
		return decision, nil
	}

	reasoning := "no classifier could route the message"
	if req.Failure != nil {
		reasoning = "classification failed and no fallback rule matched"
	}
	c.logger.Debug("every classifier deferred", "failed", req.Failure != nil)

	return core.IntentDecision{
		Intent:                 core.IntentClarificationNeeded,
		Reasoning:              reasoning,
		ClarificationQuestions: []string{Rephrase},
		Source:                 SourceFallback,
	}, nil
}
