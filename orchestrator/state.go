package orchestrator

import (
	"fmt"
	"time"

	"github.com/poiesic/colloquy/core"
)

// State is a stage in the life of a single turn.
type State string

const (
	StateReceived   State = "received"
	StateClassified State = "classified"
	StateDispatched State = "dispatched"
	StateClarifying State = "clarifying"
	StateResponded  State = "responded"
)

// edges lists the allowed transitions. Malformed input goes straight from
// received to responded; a document query with no matches dispatches a
// second time to the web agent.
var edges = map[State][]State{
	StateReceived:   {StateClassified, StateResponded},
	StateClassified: {StateDispatched, StateClarifying},
	StateDispatched: {StateDispatched, StateResponded},
	StateClarifying: {StateResponded},
}

// transition validates the edge from -> to.
func transition(from, to State) error {
	for _, next := range edges[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// TurnMonitor observes turns as they move through the state machine.
// Calls happen on the goroutine handling the turn.
type TurnMonitor interface {
	Transition(sessionID string, from, to State)
	AgentDispatched(sessionID, agent string)
	TurnCompleted(sessionID string, intent core.Intent, elapsed time.Duration)
}

// NopMonitor ignores every event.
type NopMonitor struct{}

func (NopMonitor) Transition(string, State, State)                  {}
func (NopMonitor) AgentDispatched(string, string)                   {}
func (NopMonitor) TurnCompleted(string, core.Intent, time.Duration) {}

// turn tracks the state of one HandleTurn call.
type turn struct {
	sessionID string
	state     State
	started   time.Time
	monitor   TurnMonitor
}

func newTurn(sessionID string, monitor TurnMonitor) *turn {
	return &turn{
		sessionID: sessionID,
		state:     StateReceived,
		started:   time.Now(),
		monitor:   monitor,
	}
}

func (t *turn) advance(to State) error {
	if err := transition(t.state, to); err != nil {
		return err
	}
	t.monitor.Transition(t.sessionID, t.state, to)
	t.state = to
	return nil
}
