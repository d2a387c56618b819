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
	"github.com/poiesic/skillscope/ai"
)

// NewProvider creates an AI provider backed entirely by OpenAI-compatible services:
// embeddings from EmbeddingHost and, when SynthesizerModel is set, analyses from
// SynthesizerHost. The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *ai.Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	backend, err := newBackend(config)
	if err != nil {
		return nil, err
	}

	var synthesizer ai.Synthesizer
	if config.HasSynthesizer() {
		synthesizer, err = newSynthesizer(config)
		if err != nil {
			return nil, err
		}
	}

	return ai.NewProvider(config, backend, synthesizer)
}
