// Package session holds conversation state and the stores that keep it
// between turns.
package session

import (
	"slices"
	"time"

	"github.com/poiesic/colloquy/core"
)

// Session is the conversation state for one identifier. Version increases
// on every mutation.
type Session struct {
	ID        string      `json:"id"`
	Turns     []core.Turn `json:"turns"`
	Version   uint64      `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// New returns an empty session.
func New(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Turns:     []core.Turn{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy. Turns are values, so copying the slice is
// enough except for the clarification questions each decision carries.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Turns = make([]core.Turn, len(s.Turns))
	for i, turn := range s.Turns {
		turn.Decision.ClarificationQuestions = slices.Clone(turn.Decision.ClarificationQuestions)
		clone.Turns[i] = turn
	}
	return &clone
}

// Append adds turns in order. A zero timestamp is filled with the current time.
func (s *Session) Append(turns ...core.Turn) {
	if len(turns) == 0 {
		return
	}
	now := time.Now().UTC()
	for _, turn := range turns {
		if turn.Timestamp.IsZero() {
			turn.Timestamp = now
		}
		s.Turns = append(s.Turns, turn)
	}
	s.touch(now)
}

// Clear discards every turn.
func (s *Session) Clear() {
	s.Turns = []core.Turn{}
	s.touch(time.Now().UTC())
}

// History returns a copy of the turns.
func (s *Session) History() []core.Turn {
	return s.Clone().Turns
}

// Len returns the number of turns.
func (s *Session) Len() int {
	return len(s.Turns)
}

func (s *Session) touch(now time.Time) {
	s.Version++
	s.UpdatedAt = now
}
