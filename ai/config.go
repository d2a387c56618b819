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
	"fmt"
	"strings"
	"time"
)

// ProviderKind selects the embedding backend.
type ProviderKind string

const (
	ProviderOpenAI      ProviderKind = "openai"
	ProviderHuggingFace ProviderKind = "huggingface"
	ProviderGemini      ProviderKind = "gemini"
	ProviderFastEmbed   ProviderKind = "fastembed"
	ProviderMock        ProviderKind = "mock"
)

// HuggingFaceHost is the hosted inference endpoint used when no host is configured.
const HuggingFaceHost = "https://api-inference.huggingface.co"

const localHost = "http://localhost:11434/v1"

// ParseProviderKind validates a provider name.
func ParseProviderKind(name string) (ProviderKind, error) {
	kind := ProviderKind(strings.ToLower(strings.TrimSpace(name)))
	switch kind {
	case ProviderOpenAI, ProviderHuggingFace, ProviderGemini, ProviderFastEmbed, ProviderMock:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

type Config struct {
	// Provider selects the embedding backend.
	// Default: fastembed (local, no credentials)
	Provider ProviderKind

	// EmbeddingHost is the base URL for the embedding service API.
	// Ignored by the fastembed backend.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "sentence-transformers/all-MiniLM-L6-v2", "text-embedding-3-small"
	EmbeddingModel string

	// APIKey authenticates against remote embedding services.
	APIKey string

	// Dimension is the declared vector length. Every stored chunk must match it.
	// Default: 384
	Dimension int

	// SynthesizerHost is the base URL for the OpenAI-compatible chat API.
	// Leave SynthesizerModel empty to run without a synthesizer.
	SynthesizerHost string

	// SynthesizerModel is the chat model used to write analyses.
	SynthesizerModel string

	// SynthesizerAPIKey authenticates against the chat API.
	SynthesizerAPIKey string

	// BatchSize is the largest number of texts sent in one embedding call.
	// Default: 32
	BatchSize int

	// MaxAttempts bounds retries of transient failures.
	// Default: 3
	MaxAttempts int

	// RetryDelay is the first backoff delay; it doubles on every retry.
	// Default: 5s (matches the usual model warming interval)
	RetryDelay time.Duration

	// CallTimeout bounds a single provider call.
	// Default: 30s
	CallTimeout time.Duration

	// RequestsPerSecond paces batch calls. Zero disables pacing.
	RequestsPerSecond float64

	// CacheDir holds downloaded local models (fastembed).
	CacheDir string
}

type ConfigOption func(*Config)

func WithProvider(kind ProviderKind) ConfigOption {
	return func(c *Config) {
		c.Provider = kind
	}
}

func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

func WithSynthesizerHost(host string) ConfigOption {
	return func(c *Config) {
		c.SynthesizerHost = host
	}
}

func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.SynthesizerHost = host
	}
}

func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

func WithSynthesizerModel(model string) ConfigOption {
	return func(c *Config) {
		c.SynthesizerModel = model
	}
}

func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

func WithSynthesizerAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.SynthesizerAPIKey = key
	}
}

func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

func WithBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = size
	}
}

func WithRetryPolicy(maxAttempts int, delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.MaxAttempts = maxAttempts
		c.RetryDelay = delay
	}
}

func WithCallTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.CallTimeout = d
	}
}

func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

func WithCacheDir(dir string) ConfigOption {
	return func(c *Config) {
		c.CacheDir = dir
	}
}

func DefaultConfig() *Config {
	return &Config{
		Provider:        ProviderFastEmbed,
		EmbeddingHost:   localHost,
		EmbeddingModel:  "sentence-transformers/all-MiniLM-L6-v2",
		Dimension:       384,
		SynthesizerHost: localHost,
		BatchSize:       32,
		MaxAttempts:     3,
		RetryDelay:      5 * time.Second,
		CallTimeout:     30 * time.Second,
	}
}

func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func ensureV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Normalize fixes up host URLs for OpenAI-compatible APIs and points the
// HuggingFace backend at the hosted API unless a host was chosen explicitly.
func (c *Config) Normalize() {
	switch c.Provider {
	case ProviderOpenAI:
		c.EmbeddingHost = ensureV1(c.EmbeddingHost)
	case ProviderHuggingFace:
		if c.EmbeddingHost == "" || c.EmbeddingHost == localHost {
			c.EmbeddingHost = HuggingFaceHost
		}
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
	}
	c.SynthesizerHost = ensureV1(c.SynthesizerHost)
}

// HasSynthesizer reports whether a chat model is configured.
func (c *Config) HasSynthesizer() bool {
	return c.SynthesizerModel != ""
}

func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if _, err := ParseProviderKind(string(c.Provider)); err != nil {
		return err
	}
	if c.EmbeddingModel == "" && c.Provider != ProviderMock {
		return fmt.Errorf("%w: EmbeddingModel is required", ErrInvalidConfig)
	}
	switch c.Provider {
	case ProviderOpenAI:
		if c.EmbeddingHost == "" {
			return fmt.Errorf("%w: EmbeddingHost is required", ErrInvalidConfig)
		}
	case ProviderHuggingFace, ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("%w: APIKey is required for %s", ErrInvalidConfig, c.Provider)
		}
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: Dimension must be positive", ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: BatchSize must be positive", ErrInvalidConfig)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: MaxAttempts must be positive", ErrInvalidConfig)
	}
	if c.RetryDelay < 0 || c.CallTimeout < 0 || c.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: durations and rates must not be negative", ErrInvalidConfig)
	}
	if c.HasSynthesizer() && c.SynthesizerHost == "" {
		return fmt.Errorf("%w: SynthesizerHost is required when SynthesizerModel is set", ErrInvalidConfig)
	}
	return nil
}
