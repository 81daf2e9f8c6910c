// Package response turns agent output into the reply shown to the user.
//
// Assemble is pure: the same output and decision always produce the same
// text. Raw error text never reaches the reply.
package response

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/colloquy/core"
)

// Fixed replies.
const (
	Greeting             = "Hello! How can I assist you today?"
	MalformedInputPrompt = "Please type a question so I can help. For example: \"What does the handbook say about attention?\""
	NoMatches            = "I couldn't find any matching content for that. Try rephrasing your question or broadening it."
	ResultsHeader        = "Here's what I found:"
	FollowUpPrefix       = "Following up on your previous question:"
	DefaultClarification = "Could you tell me a bit more about what you're looking for?"
)

// SnippetLength is the number of runes kept from each snippet.
const SnippetLength = 200

// Assemble builds the reply for out. In priority order: a failure becomes an
// apology naming the capability, no results becomes a suggestion to rephrase,
// and results become a numbered list. Follow-ups get a prefix last.
func Assemble(out core.AgentOutput, decision core.IntentDecision) string {
	var reply string
	switch {
	case out.Error != nil:
		reply = apology(out.Error)
	case len(out.Results) == 0:
		reply = NoMatches
	default:
		reply = list(out.Results)
	}

	if decision.IsFollowUp {
		reply = FollowUpPrefix + "\n\n" + reply
	}
	return reply
}

func apology(marker *core.ErrorMarker) string {
	capability := marker.Capability
	if capability == "" {
		capability = "search"
	}
	if marker.Kind == core.KindNoResults {
		return fmt.Sprintf("Sorry, the %s didn't turn up anything useful. Try rephrasing your question or broadening it.", capability)
	}
	return fmt.Sprintf("Sorry, I couldn't complete the %s right now. Please try rephrasing your question or ask again in a moment.", capability)
}

func list(results []core.ScoredResult) string {
	var sb strings.Builder
	sb.WriteString(ResultsHeader)
	for i, result := range results {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, item(result))
	}
	return sb.String()
}

// item formats one result according to its source kind.
func item(result core.ScoredResult) string {
	snippet := Snippet(result.Snippet)
	src := result.Source
	switch src.Kind {
	case core.SourceDocument:
		if src.Page > 0 {
			return fmt.Sprintf("From %s (page %d): %s", src.Document, src.Page, snippet)
		}
		return fmt.Sprintf("From %s: %s", src.Document, snippet)
	case core.SourceWeb:
		title := src.Title
		if title == "" {
			title = src.URL
		}
		return fmt.Sprintf("%s — %s: %s", title, src.URL, snippet)
	}
	return snippet
}

// Snippet normalizes whitespace and truncates to SnippetLength runes,
// marking a cut with "...".
func Snippet(text string) string {
	text = core.NormalizeWhitespace(text)
	if utf8.RuneCountInString(text) <= SnippetLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:SnippetLength]), " ") + "..."
}

// Sources lists the distinct sources of out in result order. A failed
// output has none.
func Sources(out core.AgentOutput) []core.Source {
	sources := []core.Source{}
	if out.Error != nil {
		return sources
	}
	seen := make(map[core.Source]bool, len(out.Results))
	for _, result := range out.Results {
		if result.Source.Kind == "" || seen[result.Source] {
			continue
		}
		seen[result.Source] = true
		sources = append(sources, result.Source)
	}
	return sources
}

// Clarification renders a clarification decision: the lead-in followed by
// one question per line.
func Clarification(decision core.IntentDecision) string {
	lead := decision.Clarification
	if lead == "" && len(decision.ClarificationQuestions) == 0 {
		return DefaultClarification
	}

	var sb strings.Builder
	sb.WriteString(lead)
	for _, question := range decision.ClarificationQuestions {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		if lead != "" {
			sb.WriteString("- ")
		}
		sb.WriteString(question)
	}
	return sb.String()
}
