//go:build cgo

package fastembed

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	fastembed "github.com/anush008/fastembed-go"

	"github.com/poiesic/skillscope/ai"
)

const (
	maxLength  = 512
	innerBatch = 256
)

// Backend runs a local ONNX embedding model.
type Backend struct {
	mu        sync.RWMutex
	model     *fastembed.FlagEmbedding
	name      string
	dimension int
}

// NewBackend loads the configured model, downloading it on first use.
func NewBackend(config *ai.Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	model, dim, err := resolveModel(config.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	cacheDir := config.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(".", "local_cache")
	}
	showProgress := false
	flag, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: load fastembed model %s: %w", ai.ErrInvalidConfig, config.EmbeddingModel, err)
	}

	return &Backend{model: flag, name: config.EmbeddingModel, dimension: dim}, nil
}

// Embed computes passage embeddings for texts.
func (b *Backend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.model == nil {
		return nil, fmt.Errorf("%w: fastembed backend closed", ai.ErrInvalidConfig)
	}

	vecs, err := b.model.PassageEmbed(texts, innerBatch)
	if err != nil {
		return nil, fmt.Errorf("fastembed %s: %w", b.name, err)
	}
	return vecs, nil
}

// Dimension returns the model's native vector length.
func (b *Backend) Dimension() int { return b.dimension }

// Name identifies the backend in logs.
func (b *Backend) Name() string { return "fastembed" }

// Close releases the ONNX session.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.model == nil {
		return nil
	}
	err := b.model.Destroy()
	b.model = nil
	return err
}
