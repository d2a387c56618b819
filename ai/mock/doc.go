// Package mock provides test double implementations of AI service interfaces.
//
// The mocks let tests run without external AI services and give controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	backend := mock.NewMockBackend(8)
//	backend.EmbedFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, fmt.Errorf("%w: warming", ai.ErrTransient)
//	}
//
//	// Check call counts
//	count := backend.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder / MockBackend: bag-of-words hashing vectors, so texts that
//     share words score higher than unrelated texts under cosine similarity
//   - MockSynthesizer: builds a result from skills found in evidence metadata
//   - MockProvider: aggregates a mock embedder and synthesizer
package mock
