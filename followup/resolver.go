// Package followup decides whether a turn continues the previous exchange.
//
// A follow-up is only possible when the previous system turn was answered by
// a retrieval agent. Greetings and clarifications end the thread: a message
// after them is classified fresh.
package followup

import (
	"slices"
	"strings"

	"github.com/poiesic/colloquy/core"
)

// Reasons reported in Resolution.Reason.
const (
	ReasonNoHistory       = "no previous exchange"
	ReasonNoPreviousAgent = "previous reply was not from a retrieval agent"
	ReasonContinuation    = "continuation phrase"
	ReasonOmittedSubject  = "message starts without a subject"
	ReasonPronoun         = "pronoun refers to the previous exchange"
	ReasonStandaloneQuery = "message stands on its own"
)

// Resolution is the resolver's verdict for one turn.
type Resolution struct {
	IsFollowUp bool

	// PreviousAgent handled the previous turn. Set whenever that agent exists.
	PreviousAgent string

	// PreviousQuery is the user text of the previous exchange.
	PreviousQuery string

	Reason string
}

// Resolver detects follow-up turns from the wording of the message.
type Resolver struct {
	continuations []string
	leadingWords  []string
	pronouns      []string
	demonstrative []string
}

// NewResolver creates a resolver with the English word lists.
func NewResolver() *Resolver {
	return &Resolver{
		continuations: []string{"what about", "how about", "and what", "what else", "and how", "tell me more"},
		leadingWords:  []string{"on", "in", "and", "also", "for", "with", "about", "but", "or", "plus"},
		pronouns:      []string{"it", "its", "they", "them", "their", "theirs", "he", "him", "his", "she", "her", "hers"},
		demonstrative: []string{"that one", "this one", "those ones", "the same", "the former", "the latter"},
	}
}

// Resolve inspects query against the turns that came before it.
func (r *Resolver) Resolve(query string, history []core.Turn) Resolution {
	prev, ok := lastSystemTurn(history)
	if !ok {
		return Resolution{Reason: ReasonNoHistory}
	}
	if !handledByAgent(prev) {
		return Resolution{Reason: ReasonNoPreviousAgent}
	}

	res := Resolution{
		PreviousAgent: prev.Agent,
		PreviousQuery: PreviousQuery(history),
	}

	words := core.Words(query)
	text := " " + strings.Join(words, " ") + " "
	switch {
	case len(words) == 0:
		res.Reason = ReasonStandaloneQuery
	case r.startsWithContinuation(text):
		res.IsFollowUp, res.Reason = true, ReasonContinuation
	case slices.Contains(r.leadingWords, words[0]):
		res.IsFollowUp, res.Reason = true, ReasonOmittedSubject
	case r.refersBack(text, words):
		res.IsFollowUp, res.Reason = true, ReasonPronoun
	default:
		res.Reason = ReasonStandaloneQuery
	}
	return res
}

func (r *Resolver) startsWithContinuation(text string) bool {
	for _, phrase := range r.continuations {
		if strings.HasPrefix(text, " "+phrase+" ") {
			return true
		}
	}
	return false
}

// refersBack reports a personal pronoun anywhere, a demonstrative phrase,
// or a message ending in a bare "that" or "this" ("why is that?").
func (r *Resolver) refersBack(text string, words []string) bool {
	for _, word := range words {
		if slices.Contains(r.pronouns, word) {
			return true
		}
	}
	for _, phrase := range r.demonstrative {
		if strings.Contains(text, " "+phrase+" ") {
			return true
		}
	}
	last := words[len(words)-1]
	return last == "that" || last == "this" || last == "those" || last == "these"
}

// Contextualize prepends the previous user query to a follow-up so
// retrieval sees what the follow-up refers to.
func Contextualize(query string, history []core.Turn) string {
	prev := PreviousQuery(history)
	if prev == "" {
		return query
	}
	return prev + " " + query
}

// Split undoes Contextualize: it returns the follow-up text and the previous
// query it was joined to. A query that was not contextualized comes back
// whole with an empty previous query.
func Split(query string, history []core.Turn) (current, previous string) {
	prev := PreviousQuery(history)
	if prev == "" {
		return query, ""
	}
	rest, ok := strings.CutPrefix(query, prev+" ")
	if !ok || strings.TrimSpace(rest) == "" {
		return query, ""
	}
	return rest, prev
}

// PreviousAgent returns the agent that answered the last system turn, or ""
// when that turn was not answered by a retrieval agent.
func PreviousAgent(history []core.Turn) string {
	prev, ok := lastSystemTurn(history)
	if !ok || !handledByAgent(prev) {
		return ""
	}
	return prev.Agent
}

// PreviousQuery returns the text of the last user turn.
func PreviousQuery(history []core.Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == core.RoleUser {
			return history[i].Text
		}
	}
	return ""
}

func lastSystemTurn(history []core.Turn) (core.Turn, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == core.RoleSystem {
			return history[i], true
		}
	}
	return core.Turn{}, false
}

// handledByAgent reports whether a system turn came from a retrieval agent.
func handledByAgent(turn core.Turn) bool {
	if turn.Agent == "" {
		return false
	}
	switch turn.Decision.Intent {
	case core.IntentGreeting, core.IntentClarificationNeeded:
		return false
	}
	return true
}
