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
	"time"
)

// clockSkew tolerates sources whose clocks run slightly ahead of ours.
const clockSkew = 5 * time.Minute

// ValidateRawPosting validates a connector record before it enters ingestion.
//
// Validation rules:
//   - Title, Employer, SourceName and SourceURL must not be blank
//   - Description must not be blank
//   - PostedAt, when set, must not be in the future
//   - Salary, when set, must have Min <= Max (zero Max means open-ended)
//
// NOT validated:
//   - Location, Requirements and Skills (optional)
//   - Tags (Unknown is a legal value)
func ValidateRawPosting(raw *RawPosting) error {
	if raw == nil {
		return fmt.Errorf("%w: posting is nil", ErrInvalidPosting)
	}

	for _, f := range []struct{ name, value string }{
		{"title", raw.Title},
		{"employer", raw.Employer},
		{"source name", raw.SourceName},
		{"source url", raw.SourceURL},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %w: %s", ErrInvalidPosting, ErrMissingField, f.name)
		}
	}

	if strings.TrimSpace(raw.Description) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPosting, ErrEmptyContent)
	}

	if !IsValidTimestamp(raw.PostedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidPosting, ErrInvalidTimestamp)
	}

	if err := ValidateSalary(raw.Salary); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPosting, err)
	}

	return nil
}

// ValidateSalary checks an optional salary range.
func ValidateSalary(s *SalaryRange) error {
	if s == nil {
		return nil
	}
	if s.Max > 0 && s.Min > s.Max {
		return fmt.Errorf("%w: %d > %d", ErrInvalidSalary, s.Min, s.Max)
	}
	return nil
}

// ValidateChunk validates a chunk before it is persisted.
//
// Validation rules:
//   - Text must not be blank
//   - Index must not be negative
//   - Vector length must equal dimension; a mismatch is never padded or truncated
//
// A dimension of zero skips the vector check.
func ValidateChunk(chunk *Chunk, dimension int) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidChunk, chunk.Index)
	}

	if dimension > 0 && len(chunk.Vector) != dimension {
		return fmt.Errorf("%w: chunk %d of posting %d has %d, want %d",
			ErrDimensionMismatch, chunk.Index, chunk.PostingId, len(chunk.Vector), dimension)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
// The zero time is valid and means "unknown".
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now().Add(clockSkew))
}
