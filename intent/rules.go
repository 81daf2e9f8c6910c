package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/followup"
)

// Classifier names, reported in IntentDecision.Source.
const (
	SourceGreeting  = "greeting"
	SourceForceWeb  = "force_web_search"
	SourceFollowUp  = "follow_up_resolver"
	SourceAmbiguity = "ambiguity_detector"
	SourceModel     = "model"
	SourceKeyword   = "keyword_fallback"
)

var greetingPattern = regexp.MustCompile(`(?i)^(?:hi+|hello+|hey+|hiya|howdy|greetings|yo|sup|good\s+(?:morning|afternoon|evening|day)|what'?s\s+up|how\s+are\s+you(?:\s+doing)?(?:\s+today)?|how'?s\s+it\s+going|nice\s+to\s+meet\s+you)(?:\s+(?:there|everyone|all|friend|again))?(?:\s*[,!.]*\s*(?:how\s+are\s+you(?:\s+doing)?(?:\s+today)?|what'?s\s+up))?\s*[!.?,]*$`)

// GreetingRule answers greetings and small talk openers.
type GreetingRule struct{}

// NewGreetingRule creates a greeting rule.
func NewGreetingRule() *GreetingRule {
	return &GreetingRule{}
}

func (r *GreetingRule) Name() string { return SourceGreeting }

// Classify decides greeting when the whole message is a greeting phrase.
func (r *GreetingRule) Classify(ctx context.Context, req Request) (core.IntentDecision, bool, error) {
	if !IsGreeting(req.Query) {
		return core.IntentDecision{}, false, nil
	}
	return core.IntentDecision{
		Intent:     core.IntentGreeting,
		Confidence: 1.0,
		Reasoning:  "message is a greeting",
	}, true, nil
}

// IsGreeting reports whether text is nothing but a greeting.
func IsGreeting(text string) bool {
	return greetingPattern.MatchString(core.NormalizeWhitespace(text))
}

// ForceWebRule routes to web search when the caller asked for it.
type ForceWebRule struct{}

// NewForceWebRule creates a force-web rule.
func NewForceWebRule() *ForceWebRule {
	return &ForceWebRule{}
}

func (r *ForceWebRule) Name() string { return SourceForceWeb }

func (r *ForceWebRule) Classify(ctx context.Context, req Request) (core.IntentDecision, bool, error) {
	if !req.ForceWebSearch {
		return core.IntentDecision{}, false, nil
	}
	return core.IntentDecision{
		Intent:     core.IntentWebSearch,
		Confidence: 1.0,
		Reasoning:  "web search requested by the caller",
	}, true, nil
}

// FollowUpRule routes continuations back to the agent that answered the
// previous turn.
type FollowUpRule struct {
	resolver *followup.Resolver
}

// NewFollowUpRule creates a follow-up rule. A nil resolver uses followup.NewResolver.
func NewFollowUpRule(resolver *followup.Resolver) *FollowUpRule {
	if resolver == nil {
		resolver = followup.NewResolver()
	}
	return &FollowUpRule{resolver: resolver}
}

func (r *FollowUpRule) Name() string { return SourceFollowUp }

func (r *FollowUpRule) Classify(ctx context.Context, req Request) (core.IntentDecision, bool, error) {
	res := r.resolver.Resolve(req.Query, req.History)
	if !res.IsFollowUp {
		return core.IntentDecision{}, false, nil
	}
	return core.IntentDecision{
		Intent:      core.IntentFollowUp,
		Confidence:  0.9,
		Reasoning:   "follow-up: " + res.Reason,
		IsFollowUp:  true,
		TargetAgent: res.PreviousAgent,
	}, true, nil
}

// AmbiguityRule asks for clarification when the Detector finds the message
// too vague to route.
type AmbiguityRule struct {
	detector *Detector
}

// NewAmbiguityRule creates an ambiguity rule. A nil detector uses NewDetector.
func NewAmbiguityRule(detector *Detector) *AmbiguityRule {
	if detector == nil {
		detector = NewDetector()
	}
	return &AmbiguityRule{detector: detector}
}

func (r *AmbiguityRule) Name() string { return SourceAmbiguity }

func (r *AmbiguityRule) Classify(ctx context.Context, req Request) (core.IntentDecision, bool, error) {
	findings := r.detector.Detect(req.Query)
	if len(findings) == 0 {
		return core.IntentDecision{}, false, nil
	}

	names := make([]string, len(findings))
	questions := make([]string, len(findings))
	for i, f := range findings {
		names[i] = string(f.Heuristic)
		questions[i] = f.Question
	}

	return core.IntentDecision{
		Intent:                 core.IntentClarificationNeeded,
		Confidence:             0.9,
		Reasoning:              "ambiguous: " + strings.Join(names, ", "),
		IsAmbiguous:            true,
		ClarificationQuestions: questions,
		Clarification:          findings[0].Clarification,
	}, true, nil
}

// KeywordRule routes on keywords after an earlier classifier failed.
type KeywordRule struct {
	webKeywords      []string
	documentKeywords []string
}

// NewKeywordRule creates a keyword rule.
func NewKeywordRule() *KeywordRule {
	return &KeywordRule{
		webKeywords:      []string{"search", "find", "look up", "latest", "news"},
		documentKeywords: []string{"document", "pdf", "file", "paper", "page"},
	}
}

func (r *KeywordRule) Name() string { return SourceKeyword }

// Classify only acts when req.Failure is set.
func (r *KeywordRule) Classify(ctx context.Context, req Request) (core.IntentDecision, bool, error) {
	if req.Failure == nil {
		return core.IntentDecision{}, false, nil
	}

	query := strings.ToLower(req.Query)
	switch {
	case containsAny(query, r.webKeywords):
		return core.IntentDecision{
			Intent:     core.IntentWebSearch,
			Confidence: 0.5,
			Reasoning:  "classification failed; web search keyword",
		}, true, nil
	case containsAny(query, r.documentKeywords):
		return core.IntentDecision{
			Intent:     core.IntentPDFQuery,
			Confidence: 0.5,
			Reasoning:  "classification failed; document keyword",
		}, true, nil
	}
	return core.IntentDecision{}, false, nil
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
