package mock

import (
	"context"
	"sync"
)

// MockBackend is a test double for ai.EmbeddingBackend. It records every batch
// it receives so tests can assert batching behavior.
type MockBackend struct {
	// EmbedFunc replaces the default behavior when set.
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

	dim     int
	mu      sync.Mutex
	batches [][]string
}

// NewMockBackend creates a backend producing HashVector vectors of length dim.
func NewMockBackend(dim int) *MockBackend {
	return &MockBackend{dim: dim}
}

func (m *MockBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, append([]string(nil), texts...))
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = HashVector(t, m.dim)
	}
	return out, nil
}

func (m *MockBackend) Dimension() int { return m.dim }

func (m *MockBackend) Name() string { return "mock" }

// CallCount returns the number of Embed calls.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// Batches returns a copy of every batch received, in call order.
func (m *MockBackend) Batches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.batches...)
}
