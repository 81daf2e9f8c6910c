package orchestrator

import "errors"

var (
	// ErrDeciderRequired indicates no intent decider was supplied.
	ErrDeciderRequired = errors.New("decider is required")

	// ErrRetrieverRequired indicates a dispatchable intent has no agent.
	ErrRetrieverRequired = errors.New("retriever is required")

	// ErrUnsupportedIntent indicates a retriever was registered for an intent
	// that never dispatches.
	ErrUnsupportedIntent = errors.New("intent does not dispatch to an agent")

	// ErrStoreRequired indicates a nil session store.
	ErrStoreRequired = errors.New("session store is required")

	// ErrInvalidConcurrency indicates a non-positive turn limit.
	ErrInvalidConcurrency = errors.New("max concurrent turns must be positive")

	// ErrInvalidTransition indicates a turn tried to move along an edge the
	// state machine does not have.
	ErrInvalidTransition = errors.New("invalid state transition")
)
