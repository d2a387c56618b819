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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// parseAttempts bounds re-generation when the model returns malformed JSON.
const parseAttempts = 3

var errEmptyResponse = errors.New("model returned no choices")

// Synthesizer implements ai.Synthesizer using an OpenAI-compatible chat API in JSON mode.
type Synthesizer struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// newSynthesizer is an internal constructor that returns the concrete type.
func newSynthesizer(config *ai.Config) (*Synthesizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !config.HasSynthesizer() {
		return nil, ai.ErrNoSynthesizer
	}

	token := config.SynthesizerAPIKey
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(config.SynthesizerHost),
		openai.WithToken(token),
		openai.WithModel(config.SynthesizerModel),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrInvalidConfig, err)
	}

	return &Synthesizer{
		client:      client,
		temperature: 0.3,
		logger:      slog.Default().With("component", "openai-synthesizer"),
	}, nil
}

// NewSynthesizer creates a synthesizer using the provided configuration.
//
// Returns ai.Synthesizer interface to enforce abstraction.
func NewSynthesizer(config *ai.Config) (ai.Synthesizer, error) {
	return newSynthesizer(config)
}

// Synthesize asks the model for a structured analysis of the evidence.
func (s *Synthesizer) Synthesize(ctx context.Context, req ai.SynthesisRequest) (*core.AnalysisResult, error) {
	var result core.AnalysisResult
	prompt := buildAnalysisPrompt(req.Query, req.Role, req.Evidence)
	if err := s.generateJSON(ctx, analysisSystemPrompt, prompt, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Compare asks the model to contrast two roles.
func (s *Synthesizer) Compare(ctx context.Context, req ai.ComparisonRequest) (*core.ComparisonResult, error) {
	var result core.ComparisonResult
	prompt := buildComparisonPrompt(req.RoleA, req.RoleB, req.EvidenceA, req.EvidenceB)
	if err := s.generateJSON(ctx, comparisonSystemPrompt, prompt, &result); err != nil {
		return nil, err
	}
	if result.RoleA == "" {
		result.RoleA = req.RoleA
	}
	if result.RoleB == "" {
		result.RoleB = req.RoleB
	}
	return &result, nil
}

// generateJSON runs one chat completion in JSON mode and decodes it into out,
// regenerating up to parseAttempts times when the response does not parse.
func (s *Synthesizer) generateJSON(ctx context.Context, system, prompt string, out any) error {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	var lastErr error
	for attempt := 0; attempt < parseAttempts; attempt++ {
		response, err := s.client.GenerateContent(ctx, content,
			llms.WithTemperature(s.temperature), llms.WithJSONMode())
		if err != nil {
			s.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return classifyError(err)
		}
		if len(response.Choices) < 1 {
			return errEmptyResponse
		}

		text := cleanJSON(response.Choices[0].Content)
		if err := json.Unmarshal([]byte(text), out); err != nil {
			lastErr = err
			s.logger.Warn("error parsing synthesizer response", "attempt", attempt+1, "err", err)
			continue
		}
		return nil
	}

	s.logger.Error("failed to parse synthesizer response after retries", "err", lastErr)
	return fmt.Errorf("decode synthesizer response: %w", lastErr)
}
