// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"context"
	"errors"
)

// ErrorKind classifies failures that can occur while handling a turn.
type ErrorKind string

const (
	KindNone                  ErrorKind = ""
	KindClassificationFailure ErrorKind = "classification_failure"
	KindRetrievalFailure      ErrorKind = "retrieval_failure"
	KindMalformedInput        ErrorKind = "malformed_input"
	KindProviderRateLimited   ErrorKind = "provider_rate_limited"
	KindNoResults             ErrorKind = "no_results"
)

// Sentinels for each error kind. Wrap these with fmt.Errorf("%w: ...") so
// KindOf can classify the result.
var (
	// ErrClassificationFailure indicates the model classification call failed or timed out.
	ErrClassificationFailure = errors.New("classification failure")

	// ErrRetrievalFailure indicates an agent could not produce results.
	ErrRetrievalFailure = errors.New("retrieval failure")

	// ErrMalformedInput indicates empty or unusable input. Never retried.
	ErrMalformedInput = errors.New("malformed input")

	// ErrProviderRateLimited indicates a transient rate limit from an external provider.
	ErrProviderRateLimited = errors.New("provider rate limited")

	// ErrNoResults indicates a provider answered successfully with nothing usable.
	ErrNoResults = errors.New("no results")
)

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyDocument indicates the chunk is missing its document identity.
	ErrEmptyDocument = errors.New("document name cannot be empty")

	// ErrInvalidPage indicates a page number below 1.
	ErrInvalidPage = errors.New("page must be 1 or greater")

	// ErrInvalidOffsets indicates offsets that are negative or inverted.
	ErrInvalidOffsets = errors.New("invalid offsets")
)

// KindOf maps an error to its ErrorKind. Timeouts count as retrieval failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMalformedInput):
		return KindMalformedInput
	case errors.Is(err, ErrProviderRateLimited):
		return KindProviderRateLimited
	case errors.Is(err, ErrNoResults):
		return KindNoResults
	case errors.Is(err, ErrClassificationFailure):
		return KindClassificationFailure
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrRetrievalFailure):
		return KindRetrievalFailure
	}
	return KindRetrievalFailure
}
