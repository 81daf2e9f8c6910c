package followup

import (
	"testing"
	"time"

	"github.com/poiesic/colloquy/core"
	"github.com/stretchr/testify/assert"
)

func exchange(query string, intent core.Intent, agent string) []core.Turn {
	now := time.Now()
	return []core.Turn{
		{Role: core.RoleUser, Text: query, Timestamp: now},
		{Role: core.RoleSystem, Text: "reply", Timestamp: now, Decision: core.IntentDecision{Intent: intent}, Agent: agent},
	}
}

func TestResolver_Resolve(t *testing.T) {
	afterDocs := exchange("What is attention in transformers?", core.IntentPDFQuery, core.AgentDocument)
	afterWeb := exchange("latest Go release", core.IntentWebSearch, core.AgentWeb)

	tests := []struct {
		name      string
		query     string
		history   []core.Turn
		want      bool
		wantAgent string
		reason    string
	}{
		{"what about opener", "What about in RNNs?", afterDocs, true, core.AgentDocument, ReasonContinuation},
		{"how about opener", "how about Rust", afterWeb, true, core.AgentWeb, ReasonContinuation},
		{"and what opener", "And what does it cost?", afterWeb, true, core.AgentWeb, ReasonContinuation},
		{"omitted subject", "also for vision models", afterDocs, true, core.AgentDocument, ReasonOmittedSubject},
		{"leading preposition", "on page 4?", afterDocs, true, core.AgentDocument, ReasonOmittedSubject},
		{"personal pronoun", "Who introduced it first?", afterDocs, true, core.AgentDocument, ReasonPronoun},
		{"plural pronoun", "Are they faster than LSTMs?", afterDocs, true, core.AgentDocument, ReasonPronoun},
		{"demonstrative phrase", "Is that one open source?", afterWeb, true, core.AgentWeb, ReasonPronoun},
		{"trailing demonstrative", "Why is that?", afterDocs, true, core.AgentDocument, ReasonPronoun},
		{"standalone question", "What is a convolutional network?", afterDocs, false, core.AgentDocument, ReasonStandaloneQuery},
		{"no history", "What about in RNNs?", nil, false, "", ReasonNoHistory},
		{"after greeting", "what about it", exchange("hello", core.IntentGreeting, ""), false, "", ReasonNoPreviousAgent},
		{"after clarification", "what about it", exchange("is it good?", core.IntentClarificationNeeded, ""), false, "", ReasonNoPreviousAgent},
	}

	r := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(tt.query, tt.history)
			assert.Equal(t, tt.want, res.IsFollowUp)
			assert.Equal(t, tt.wantAgent, res.PreviousAgent)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestResolver_PreviousQuery(t *testing.T) {
	history := append(
		exchange("What is attention?", core.IntentPDFQuery, core.AgentDocument),
		exchange("Who wrote the transformer paper?", core.IntentPDFQuery, core.AgentDocument)...,
	)

	res := NewResolver().Resolve("what else did they write", history)
	assert.True(t, res.IsFollowUp)
	assert.Equal(t, "Who wrote the transformer paper?", res.PreviousQuery)
}

func TestContextualize(t *testing.T) {
	history := exchange("What is attention in transformers?", core.IntentPDFQuery, core.AgentDocument)
	assert.Equal(t, "What is attention in transformers? what about RNNs", Contextualize("what about RNNs", history))
	assert.Equal(t, "what about RNNs", Contextualize("what about RNNs", nil))
}

func TestSplit(t *testing.T) {
	history := exchange("What does page 2 say about attention?", core.IntentPDFQuery, core.AgentDocument)

	current, previous := Split(Contextualize("What about on page 5?", history), history)
	assert.Equal(t, "What about on page 5?", current)
	assert.Equal(t, "What does page 2 say about attention?", previous)

	current, previous = Split("Summarize page 7", history)
	assert.Equal(t, "Summarize page 7", current)
	assert.Empty(t, previous)

	current, previous = Split("what about RNNs", nil)
	assert.Equal(t, "what about RNNs", current)
	assert.Empty(t, previous)
}

func TestPreviousAgent(t *testing.T) {
	assert.Equal(t, core.AgentWeb, PreviousAgent(exchange("latest Go release", core.IntentWebSearch, core.AgentWeb)))
	assert.Empty(t, PreviousAgent(exchange("hello", core.IntentGreeting, "")))
	assert.Empty(t, PreviousAgent(nil))
}
