package orchestrator

import "github.com/poiesic/colloquy/core"

// TurnRequest is one user message.
type TurnRequest struct {
	// SessionID identifies the conversation. Empty starts a new one.
	SessionID      string `json:"sessionId"`
	Text           string `json:"text"`
	ForceWebSearch bool   `json:"forceWebSearch"`
}

// TurnResponse is the outcome of a turn.
type TurnResponse struct {
	SessionID              string              `json:"sessionId"`
	Intent                 core.Intent         `json:"intent"`
	Reply                  string              `json:"reply"`
	NeedsClarification     bool                `json:"needsClarification"`
	ClarificationQuestions []string            `json:"clarificationQuestions"`
	Sources                []core.Source       `json:"sources"`
	Agent                  string              `json:"agent,omitempty"`
	Decision               core.IntentDecision `json:"decision"`
}
