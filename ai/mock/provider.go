package mock

import "github.com/poiesic/skillscope/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder and synthesizer instances.
type MockProvider struct {
	embedder    *MockEmbedder
	synthesizer *MockSynthesizer
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockSynthesizer() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:    NewMockEmbedder(),
		synthesizer: NewMockSynthesizer(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// A nil synthesizer makes Synthesizer() return nil.
func NewMockProviderWithServices(embedder *MockEmbedder, synthesizer *MockSynthesizer) ai.AIProvider {
	return &MockProvider{
		embedder:    embedder,
		synthesizer: synthesizer,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Synthesizer returns the mock synthesizer, or nil when none was supplied.
func (p *MockProvider) Synthesizer() ai.Synthesizer {
	if p.synthesizer == nil {
		return nil
	}
	return p.synthesizer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockSynthesizer returns the underlying mock synthesizer for test assertions.
func (p *MockProvider) GetMockSynthesizer() *MockSynthesizer {
	return p.synthesizer
}
