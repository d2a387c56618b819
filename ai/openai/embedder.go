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
	"fmt"
	"log/slog"

	"github.com/poiesic/skillscope/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Backend implements ai.EmbeddingBackend using an OpenAI-compatible embeddings API.
type Backend struct {
	embedder  embeddings.Embedder
	dimension int
	logger    *slog.Logger
}

// newBackend is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newBackend(config *ai.Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local OpenAI-compatible services accept any token
	token := config.APIKey
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrInvalidConfig, err)
	}

	// Batching is owned by ai.BatchEmbedder; keep langchaingo from re-splitting.
	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.BatchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrInvalidConfig, err)
	}

	return &Backend{
		embedder:  embedder,
		dimension: config.Dimension,
		logger:    slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewBackend creates a raw embedding backend using the provided configuration.
//
// Returns ai.EmbeddingBackend interface to enforce abstraction.
func NewBackend(config *ai.Config) (ai.EmbeddingBackend, error) {
	return newBackend(config)
}

// Embed generates vector embeddings for a batch of texts in one call.
func (b *Backend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	b.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := b.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		b.logger.Debug("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, classifyError(err)
	}
	return vectors, nil
}

// Dimension returns the configured vector length.
func (b *Backend) Dimension() int {
	return b.dimension
}

// Name identifies the backend in logs.
func (b *Backend) Name() string {
	return "openai"
}
