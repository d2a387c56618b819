//go:build !cgo

package fastembed

import (
	"context"

	"github.com/poiesic/skillscope/ai"
)

// Backend is unavailable without cgo.
type Backend struct{}

// NewBackend reports ErrNotAvailable.
func NewBackend(_ *ai.Config) (*Backend, error) {
	return nil, ErrNotAvailable
}

func (b *Backend) Embed(context.Context, []string) ([][]float32, error) {
	return nil, ErrNotAvailable
}

func (b *Backend) Dimension() int { return 0 }

func (b *Backend) Name() string { return "fastembed" }

func (b *Backend) Close() error { return nil }
