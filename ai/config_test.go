package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderFastEmbed, cfg.Provider)
	assert.Equal(t, 384, cfg.Dimension)
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.False(t, cfg.HasSynthesizer())
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.SynthesizerHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderHuggingFace),
			WithEmbeddingModel("sentence-transformers/all-mpnet-base-v2"),
			WithAPIKey("hf_secret"),
			WithDimension(768),
			WithBatchSize(16),
			WithRetryPolicy(5, time.Second),
			WithCallTimeout(10*time.Second),
			WithRequestsPerSecond(2),
			WithSynthesizerModel("llama-3.1-8b-instant"),
			WithSynthesizerHost("https://api.groq.com/openai"),
			WithSynthesizerAPIKey("gsk_secret"),
			WithCacheDir("/tmp/models"),
		)

		assert.Equal(t, ProviderHuggingFace, cfg.Provider)
		assert.Equal(t, 768, cfg.Dimension)
		assert.Equal(t, 16, cfg.BatchSize)
		assert.Equal(t, 5, cfg.MaxAttempts)
		assert.Equal(t, time.Second, cfg.RetryDelay)
		assert.Equal(t, 10*time.Second, cfg.CallTimeout)
		assert.Equal(t, 2.0, cfg.RequestsPerSecond)
		assert.Equal(t, "/tmp/models", cfg.CacheDir)
		assert.True(t, cfg.HasSynthesizer())
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "https://api.groq.com/openai/v1", cfg.SynthesizerHost)
	})
}

func TestParseProviderKind(t *testing.T) {
	for _, name := range []string{"openai", "HuggingFace", " gemini ", "fastembed", "mock"} {
		_, err := ParseProviderKind(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseProviderKind("bedrock")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name              string
		provider          ProviderKind
		embeddingHost     string
		synthesizerHost   string
		expectedEmbedding string
		expectedSynth     string
	}{
		{"already has /v1", ProviderOpenAI, "http://localhost:11434/v1", "http://localhost:11434/v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing /v1", ProviderOpenAI, "http://localhost:11434", "http://localhost:11434", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"has trailing slash", ProviderOpenAI, "http://localhost:11434/", "http://localhost:11434/", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"empty hosts", ProviderOpenAI, "", "", "", ""},
		{"huggingface custom host kept", ProviderHuggingFace, "http://tei:8080/", "http://chat:9090", "http://tei:8080", "http://chat:9090/v1"},
		{"huggingface default host", ProviderHuggingFace, "http://localhost:11434/v1", "", HuggingFaceHost, ""},
		{"fastembed host untouched", ProviderFastEmbed, "http://localhost:11434", "", "http://localhost:11434", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Provider:        tt.provider,
				EmbeddingHost:   tt.embeddingHost,
				SynthesizerHost: tt.synthesizerHost,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedEmbedding, cfg.EmbeddingHost)
			assert.Equal(t, tt.expectedSynth, cfg.SynthesizerHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ConfigOption
		wantMsg string
	}{
		{"unknown provider", []ConfigOption{WithProvider("bedrock")}, "unknown ai provider"},
		{"missing embedding model", []ConfigOption{WithEmbeddingModel("")}, "EmbeddingModel"},
		{"openai without host", []ConfigOption{WithProvider(ProviderOpenAI), WithEmbeddingHost("")}, "EmbeddingHost"},
		{"huggingface without key", []ConfigOption{WithProvider(ProviderHuggingFace)}, "APIKey"},
		{"gemini without key", []ConfigOption{WithProvider(ProviderGemini)}, "APIKey"},
		{"zero dimension", []ConfigOption{WithDimension(0)}, "Dimension"},
		{"zero batch size", []ConfigOption{WithBatchSize(0)}, "BatchSize"},
		{"zero attempts", []ConfigOption{WithRetryPolicy(0, time.Second)}, "MaxAttempts"},
		{"negative rate", []ConfigOption{WithRequestsPerSecond(-1)}, "negative"},
		{"synthesizer without host", []ConfigOption{WithSynthesizerModel("m"), WithSynthesizerHost("")}, "SynthesizerHost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opts...).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("mock needs no model", func(t *testing.T) {
		cfg := NewConfig(WithProvider(ProviderMock), WithEmbeddingModel(""))
		assert.NoError(t, cfg.Validate())
	})
}
