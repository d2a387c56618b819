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

package ai

import (
	"errors"

	"github.com/poiesic/skillscope/core"
)

var (
	// ErrInvalidConfig indicates a missing or inconsistent provider setting.
	ErrInvalidConfig = errors.New("invalid ai config")

	// ErrUnknownProvider indicates a provider name with no registered implementation.
	ErrUnknownProvider = errors.New("unknown ai provider")

	// ErrTransient marks a provider failure worth retrying: model warming,
	// rate limiting, timeouts, upstream 5xx.
	ErrTransient = errors.New("transient provider error")

	// ErrUnauthorized marks rejected or missing credentials. Never retried.
	ErrUnauthorized = errors.New("provider rejected credentials")

	// ErrDimensionMismatch indicates a provider returned vectors of the wrong length.
	ErrDimensionMismatch = core.ErrDimensionMismatch

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRetriesExhausted wraps the last error once every attempt has failed.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrNoSynthesizer indicates the provider was built without a text-generation model.
	ErrNoSynthesizer = errors.New("no synthesizer configured")
)
