// Package provider selects and builds the configured AI provider.
package provider

import (
	"context"
	"fmt"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/ai/fastembed"
	"github.com/poiesic/skillscope/ai/gemini"
	"github.com/poiesic/skillscope/ai/huggingface"
	"github.com/poiesic/skillscope/ai/mock"
	"github.com/poiesic/skillscope/ai/openai"
)

// New builds the provider named by config.Provider. Every backend is wrapped in
// an ai.BatchEmbedder; the synthesizer is an OpenAI-compatible chat model when
// config.SynthesizerModel is set, except for the mock provider which always
// carries a mock synthesizer.
func New(ctx context.Context, config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Provider == ai.ProviderOpenAI {
		return openai.NewProvider(config)
	}

	backend, err := newBackend(ctx, config)
	if err != nil {
		return nil, err
	}

	var synthesizer ai.Synthesizer
	switch {
	case config.Provider == ai.ProviderMock:
		synthesizer = mock.NewMockSynthesizer()
	case config.HasSynthesizer():
		synthesizer, err = openai.NewSynthesizer(config)
		if err != nil {
			closeBackend(backend)
			return nil, err
		}
	}

	p, err := ai.NewProvider(config, backend, synthesizer)
	if err != nil {
		closeBackend(backend)
		return nil, err
	}
	return p, nil
}

func newBackend(ctx context.Context, config *ai.Config) (ai.EmbeddingBackend, error) {
	switch config.Provider {
	case ai.ProviderHuggingFace:
		return huggingface.NewBackend(config)
	case ai.ProviderGemini:
		return gemini.NewBackend(ctx, config)
	case ai.ProviderFastEmbed:
		return fastembed.NewBackend(config)
	case ai.ProviderMock:
		return mock.NewMockBackend(config.Dimension), nil
	}
	return nil, fmt.Errorf("%w: %q", ai.ErrUnknownProvider, config.Provider)
}

func closeBackend(backend ai.EmbeddingBackend) {
	if c, ok := backend.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
