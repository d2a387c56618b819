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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// BatchEmbedder implements Embedder over a raw EmbeddingBackend.
//
// It splits input into batches no larger than the backend ceiling, retries
// transient failures with doubling backoff, falls back to per-item calls when a
// batch fails, and substitutes zero vectors so the output arity always matches
// the input. Blank texts never reach the backend.
type BatchEmbedder struct {
	backend     EmbeddingBackend
	batchSize   int
	maxAttempts int
	retryDelay  time.Duration
	callTimeout time.Duration
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// BatchOption configures a BatchEmbedder.
type BatchOption func(*BatchEmbedder) error

// WithBatchLimit sets the largest number of texts per backend call.
// Default is 32.
func WithBatchLimit(size int) BatchOption {
	return func(b *BatchEmbedder) error {
		if size < 1 {
			return fmt.Errorf("%w: batch size %d", ErrInvalidConfig, size)
		}
		b.batchSize = size
		return nil
	}
}

// WithRetry sets the attempt ceiling and first backoff delay for transient failures.
// Default is 3 attempts starting at 5s.
func WithRetry(maxAttempts int, baseDelay time.Duration) BatchOption {
	return func(b *BatchEmbedder) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		b.maxAttempts = maxAttempts
		b.retryDelay = baseDelay
		return nil
	}
}

// WithCallTimeout bounds each backend call. Zero disables the bound.
// Default is 30s.
func WithCallTimeout(d time.Duration) BatchOption {
	return func(b *BatchEmbedder) error {
		b.callTimeout = d
		return nil
	}
}

// WithRateLimit paces backend calls at rps calls per second. Zero disables pacing.
func WithRateLimit(rps float64) BatchOption {
	return func(b *BatchEmbedder) error {
		if rps <= 0 {
			b.limiter = nil
			return nil
		}
		b.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		return nil
	}
}

// WithBatchLogger sets a custom logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchEmbedder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBatchEmbedder wraps backend with batching, retry and zero-vector fallback.
func NewBatchEmbedder(backend EmbeddingBackend, opts ...BatchOption) (*BatchEmbedder, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is nil", ErrInvalidConfig)
	}
	if backend.Dimension() <= 0 {
		return nil, fmt.Errorf("%w: backend %s declares dimension %d", ErrInvalidConfig, backend.Name(), backend.Dimension())
	}

	b := &BatchEmbedder{
		backend:     backend,
		batchSize:   32,
		maxAttempts: 3,
		retryDelay:  5 * time.Second,
		callTimeout: 30 * time.Second,
		logger:      slog.Default().With("component", "batch-embedder", "backend", backend.Name()),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// NewBatchEmbedderFromConfig applies the batching settings carried by cfg.
func NewBatchEmbedderFromConfig(backend EmbeddingBackend, cfg *Config) (*BatchEmbedder, error) {
	return NewBatchEmbedder(backend,
		WithBatchLimit(cfg.BatchSize),
		WithRetry(cfg.MaxAttempts, cfg.RetryDelay),
		WithCallTimeout(cfg.CallTimeout),
		WithRateLimit(cfg.RequestsPerSecond),
	)
}

// Dimension returns the backend's declared vector length.
func (b *BatchEmbedder) Dimension() int {
	return b.backend.Dimension()
}

// Backend returns the wrapped backend.
func (b *BatchEmbedder) Backend() EmbeddingBackend {
	return b.backend
}

func (b *BatchEmbedder) zero() []float32 {
	return make([]float32, b.backend.Dimension())
}

// EmbedText embeds one text. Blank text yields a zero vector without a backend call.
// Exhausting retries is an error.
func (b *BatchEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return b.zero(), nil
	}
	vecs, err := b.call(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts embeds texts in input order. Only permanent failures (credentials,
// configuration, dimension) and caller cancellation are returned as errors; any
// other failed item becomes a zero vector and is logged.
func (b *BatchEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	pending := make([]int, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			out[i] = b.zero()
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += b.batchSize {
		end := min(start+b.batchSize, len(pending))
		idx := pending[start:end]

		batch := make([]string, len(idx))
		for j, i := range idx {
			batch[j] = texts[i]
		}

		vecs, err := b.call(ctx, batch)
		if err == nil {
			for j, i := range idx {
				out[i] = vecs[j]
			}
			continue
		}
		if fatal(ctx, err) {
			return nil, err
		}

		b.logger.Warn("batch embedding failed, retrying items individually", "size", len(batch), "err", err)
		for _, i := range idx {
			vec, itemErr := b.call(ctx, []string{texts[i]})
			if itemErr != nil {
				if fatal(ctx, itemErr) {
					return nil, itemErr
				}
				b.logger.Error("embedding failed, using zero vector", "index", i, "err", itemErr)
				out[i] = b.zero()
				continue
			}
			out[i] = vec[0]
		}
	}

	return out, nil
}

func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrDimensionMismatch)
}

// call performs one paced, bounded, retried backend call and checks its shape.
func (b *BatchEmbedder) call(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	err := RetryWithBackoff(ctx, func() error {
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		callCtx := ctx
		if b.callTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.callTimeout)
			defer cancel()
		}

		vecs, err := b.backend.Embed(callCtx, texts)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return fmt.Errorf("%w: call timed out: %w", ErrTransient, err)
			}
			return err
		}
		if len(vecs) != len(texts) {
			return fmt.Errorf("%w: backend returned %d vectors for %d texts", ErrTransient, len(vecs), len(texts))
		}
		for _, v := range vecs {
			if len(v) != b.backend.Dimension() {
				return fmt.Errorf("%w: backend %s returned %d, declared %d",
					ErrDimensionMismatch, b.backend.Name(), len(v), b.backend.Dimension())
			}
		}
		result = vecs
		return nil
	}, b.maxAttempts, b.retryDelay)
	return result, err
}
