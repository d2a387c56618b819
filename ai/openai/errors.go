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

package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/skillscope/ai"
)

var (
	unauthorizedMarkers = []string{"401", "403", "unauthorized", "invalid_api_key", "incorrect api key"}
	transientMarkers    = []string{"429", "500", "502", "503", "504", "rate limit", "overloaded",
		"timeout", "connection refused", "connection reset", "eof", "loading"}
)

// classifyError maps client errors onto the ai error taxonomy.
// langchaingo reports HTTP failures as formatted strings, so matching is textual.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ai.ErrTransient, err)
	}
	msg := strings.ToLower(err.Error())
	for _, m := range unauthorizedMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %w", ai.ErrUnauthorized, err)
		}
	}
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %w", ai.ErrTransient, err)
		}
	}
	return err
}
