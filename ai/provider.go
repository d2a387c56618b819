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
	"fmt"
	"io"
	"log/slog"
)

// Provider is the generic AIProvider: a batched embedder over any backend plus an
// optional synthesizer. Backend packages construct one of these.
type Provider struct {
	embedder    *BatchEmbedder
	synthesizer Synthesizer
	closers     []io.Closer
	logger      *slog.Logger
}

// NewProvider assembles a provider. Backends or synthesizers implementing
// io.Closer are closed with the provider.
func NewProvider(config *Config, backend EmbeddingBackend, synthesizer Synthesizer) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if backend.Dimension() != config.Dimension {
		return nil, fmt.Errorf("%w: %w: backend %s produces %d, configured %d",
			ErrInvalidConfig, ErrDimensionMismatch, backend.Name(), backend.Dimension(), config.Dimension)
	}

	embedder, err := NewBatchEmbedderFromConfig(backend, config)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		embedder:    embedder,
		synthesizer: synthesizer,
		logger:      slog.Default().With("component", "ai-provider", "backend", backend.Name()),
	}
	if c, ok := backend.(io.Closer); ok {
		p.closers = append(p.closers, c)
	}
	if c, ok := synthesizer.(io.Closer); ok {
		p.closers = append(p.closers, c)
	}
	return p, nil
}

// Embedder returns the batched embedder.
func (p *Provider) Embedder() Embedder {
	return p.embedder
}

// Synthesizer returns the configured synthesizer or nil.
func (p *Provider) Synthesizer() Synthesizer {
	if p.synthesizer == nil {
		return nil
	}
	return p.synthesizer
}

// Close releases backend resources.
func (p *Provider) Close() error {
	p.logger.Debug("closing provider")
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
