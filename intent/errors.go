package intent

import "errors"

var (
	// ErrEmptyChain is returned when a chain is built without classifiers.
	ErrEmptyChain = errors.New("chain requires at least one classifier")

	// ErrClassifierRequired is returned when a model classifier is not provided.
	ErrClassifierRequired = errors.New("intent classifier required")

	// ErrInvalidTimeout is returned for a non-positive timeout.
	ErrInvalidTimeout = errors.New("timeout must be greater than 0")

	// ErrInvalidHistoryTurns is returned for a negative history bound.
	ErrInvalidHistoryTurns = errors.New("history turns cannot be negative")

	// ErrUnexpectedIntent is returned when the model answers with an intent it may not use.
	ErrUnexpectedIntent = errors.New("unexpected intent")
)
