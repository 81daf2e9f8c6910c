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
	"fmt"
	"strings"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty or whitespace
//   - DocumentName must not be empty
//   - Page must be 1 or greater
//   - Offsets must be non-negative with StartOffset <= EndOffset
//
// NOT validated (assigned by storage):
//   - ID (0 until the sequence assigns one)
//   - Generation, InsertedAt
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.DocumentName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyDocument)
	}

	if chunk.Page < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidPage)
	}

	if chunk.StartOffset < 0 || chunk.EndOffset < chunk.StartOffset {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidOffsets)
	}

	return nil
}

// ValidateQuery rejects empty or whitespace-only queries.
func ValidateQuery(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: query is empty", ErrMalformedInput)
	}
	return nil
}

// NormalizeWhitespace collapses runs of whitespace into single spaces and trims the ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
