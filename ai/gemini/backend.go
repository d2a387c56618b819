package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/poiesic/skillscope/ai"
)

// DefaultModel is used when the configured model is empty.
const DefaultModel = "gemini-embedding-001"

// contentEmbedder is the subset of *genai.Models used here.
type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Backend embeds text through the Gemini API.
type Backend struct {
	models    contentEmbedder
	model     string
	dimension int
}

// NewBackend creates a Gemini backend. The configured dimension is requested as
// the output dimensionality so truncated Matryoshka vectors match the store.
func NewBackend(ctx context.Context, config *ai.Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %w", ai.ErrInvalidConfig, err)
	}

	model := config.EmbeddingModel
	if model == "" || strings.Contains(model, "/") {
		model = DefaultModel
	}
	return newBackend(client.Models, model, config.Dimension), nil
}

func newBackend(models contentEmbedder, model string, dimension int) *Backend {
	return &Backend{models: models, model: model, dimension: dimension}
}

// Embed sends all texts in one EmbedContent call.
func (b *Backend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	dim := int32(b.dimension)
	resp, err := b.models.EmbedContent(ctx, b.model, contents, &genai.EmbedContentConfig{
		TaskType:             "RETRIEVAL_DOCUMENT",
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, classifyError(err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("%w: gemini returned %d embeddings for %d inputs", ai.ErrTransient, got, len(texts))
	}

	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("%w: gemini returned empty embedding at %d", ai.ErrTransient, i)
		}
		out[i] = e.Values
	}
	return out, nil
}

// Dimension returns the requested output dimensionality.
func (b *Backend) Dimension() int { return b.dimension }

// Name identifies the backend in logs.
func (b *Backend) Name() string { return "gemini" }

func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ai.ErrTransient, err)
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	switch code {
	case 401, 403:
		return fmt.Errorf("%w: %w", ai.ErrUnauthorized, err)
	case 429, 500, 502, 503, 504:
		return fmt.Errorf("%w: %w", ai.ErrTransient, err)
	case 400, 404:
		return fmt.Errorf("gemini rejected request: %w", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ai.ErrTransient, err)
	}
	return err
}
