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
	"context"

	"github.com/poiesic/skillscope/core"
)

// Embedder maps text to fixed-dimension vectors. Callers depend only on this
// contract; which backend produces the vectors is chosen at construction.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Blank text yields a zero vector of Dimension() length.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings.
	// The result always has len(texts) entries in input order; items that
	// could not be embedded are zero vectors.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the declared vector length.
	Dimension() int
}

// EmbeddingBackend is one raw batch call to an embedding service. Backends do not
// batch, retry or pad; BatchEmbedder layers that behavior over them.
type EmbeddingBackend interface {
	// Embed returns one vector per input text or an error for the whole call.
	// Errors should wrap ErrTransient or ErrUnauthorized where the cause is known.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the vector length the backend is configured to produce.
	Dimension() int

	// Name identifies the backend in logs.
	Name() string
}

// SynthesisRequest is the evidence bundle handed to a Synthesizer.
type SynthesisRequest struct {
	Query    string
	Role     string
	Evidence []*core.Evidence
}

// ComparisonRequest carries the evidence for two roles being compared.
type ComparisonRequest struct {
	RoleA     string
	RoleB     string
	EvidenceA []*core.Evidence
	EvidenceB []*core.Evidence
}

// Synthesizer turns ranked evidence into a structured report.
type Synthesizer interface {
	// Synthesize produces an analysis of the evidence for a query.
	// Citations and posting counts are attached by the caller.
	Synthesize(ctx context.Context, req SynthesisRequest) (*core.AnalysisResult, error)

	// Compare contrasts the evidence gathered for two roles.
	Compare(ctx context.Context, req ComparisonRequest) (*core.ComparisonResult, error)
}

// AIProvider aggregates the configured AI services.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Synthesizer returns the report generator, or nil when none is configured.
	Synthesizer() Synthesizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
