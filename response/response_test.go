package response

import (
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/colloquy/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docResult(doc string, page int, snippet string) core.ScoredResult {
	return core.ScoredResult{
		Chunk:   &core.Chunk{DocumentName: doc, Page: page, Text: snippet},
		Snippet: snippet,
		Score:   0.9,
		Source:  core.Source{Kind: core.SourceDocument, Document: doc, Page: page},
	}
}

func webResult(title, url, snippet string) core.ScoredResult {
	return core.ScoredResult{
		Snippet: snippet,
		Score:   1,
		Source:  core.Source{Kind: core.SourceWeb, Title: title, URL: url},
	}
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name     string
		out      core.AgentOutput
		decision core.IntentDecision
		want     string
	}{
		{
			name: "document results",
			out: core.AgentOutput{Agent: core.AgentDocument, Results: []core.ScoredResult{
				docResult("handbook.pdf", 3, "Attention   weighs\ntokens."),
				docResult("guide.pdf", 0, "Residuals help."),
			}},
			want: "Here's what I found:\n1. From handbook.pdf (page 3): Attention weighs tokens.\n2. From guide.pdf: Residuals help.",
		},
		{
			name: "web results",
			out: core.AgentOutput{Agent: core.AgentWeb, Results: []core.ScoredResult{
				webResult("Go 1.25", "https://go.dev/blog/go1.25", "Release notes."),
			}},
			want: "Here's what I found:\n1. Go 1.25 — https://go.dev/blog/go1.25: Release notes.",
		},
		{
			name: "empty results",
			out:  core.AgentOutput{Agent: core.AgentDocument, Results: []core.ScoredResult{}},
			want: NoMatches,
		},
		{
			name: "failure names the capability",
			out: core.AgentOutput{Agent: core.AgentWeb, Error: &core.ErrorMarker{
				Kind: core.KindRetrievalFailure, Capability: "web search", Err: errors.New("dial tcp 10.0.0.1:443: i/o timeout"),
			}},
			want: "Sorry, I couldn't complete the web search right now. Please try rephrasing your question or ask again in a moment.",
		},
		{
			name: "no results marker",
			out: core.AgentOutput{Agent: core.AgentWeb, Error: &core.ErrorMarker{
				Kind: core.KindNoResults, Capability: "web search",
			}},
			want: "Sorry, the web search didn't turn up anything useful. Try rephrasing your question or broadening it.",
		},
		{
			name:     "follow-up prefix applies last",
			out:      core.AgentOutput{Agent: core.AgentDocument, Results: []core.ScoredResult{docResult("handbook.pdf", 5, "Page five.")}},
			decision: core.IntentDecision{Intent: core.IntentFollowUp, IsFollowUp: true},
			want:     FollowUpPrefix + "\n\nHere's what I found:\n1. From handbook.pdf (page 5): Page five.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Assemble(tt.out, tt.decision))
		})
	}
}

func TestAssemble_NeverLeaksErrorText(t *testing.T) {
	out := core.AgentOutput{Error: &core.ErrorMarker{
		Kind:       core.KindRetrievalFailure,
		Capability: "document search",
		Err:        errors.New("badger: secret internal detail"),
	}}
	reply := Assemble(out, core.IntentDecision{})
	assert.NotContains(t, reply, "badger")
	assert.Contains(t, reply, "document search")
}

func TestAssemble_Idempotent(t *testing.T) {
	out := core.AgentOutput{Agent: core.AgentDocument, Results: []core.ScoredResult{
		docResult("handbook.pdf", 1, strings.Repeat("attention ", 50)),
		webResult("", "https://example.com", "x"),
	}}
	decision := core.IntentDecision{IsFollowUp: true}

	first := Assemble(out, decision)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Assemble(out, decision))
	}
}

func TestSnippet(t *testing.T) {
	short := "  a   short\tsnippet "
	assert.Equal(t, "a short snippet", Snippet(short))

	long := strings.Repeat("é", SnippetLength+10)
	got := Snippet(long)
	require.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, SnippetLength, len([]rune(strings.TrimSuffix(got, "..."))))

	exact := strings.Repeat("a", SnippetLength)
	assert.Equal(t, exact, Snippet(exact))
}

func TestSources(t *testing.T) {
	out := core.AgentOutput{Results: []core.ScoredResult{
		docResult("handbook.pdf", 3, "a"),
		docResult("handbook.pdf", 3, "b"),
		docResult("handbook.pdf", 4, "c"),
		{Snippet: "unattributed"},
	}}

	sources := Sources(out)
	require.Len(t, sources, 2)
	assert.Equal(t, 3, sources[0].Page)
	assert.Equal(t, 4, sources[1].Page)

	failed := Sources(core.AgentOutput{Error: &core.ErrorMarker{Kind: core.KindRetrievalFailure}})
	assert.NotNil(t, failed)
	assert.Empty(t, failed)
}

func TestClarification(t *testing.T) {
	decision := core.IntentDecision{
		Intent:                 core.IntentClarificationNeeded,
		Clarification:          "I'm not sure what amount you have in mind.",
		ClarificationQuestions: []string{"What quantity?", "Compared to what?"},
	}
	assert.Equal(t, "I'm not sure what amount you have in mind.\n- What quantity?\n- Compared to what?", Clarification(decision))

	assert.Equal(t, "Could you please rephrase?", Clarification(core.IntentDecision{ClarificationQuestions: []string{"Could you please rephrase?"}}))
	assert.Equal(t, DefaultClarification, Clarification(core.IntentDecision{}))
}
