package huggingface

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/poiesic/skillscope/ai"
)

var errUnexpectedShape = errors.New("unexpected feature-extraction response shape")

// Backend calls POST {host}/models/{model} with {"inputs": [...]}.
type Backend struct {
	client    *resty.Client
	model     string
	dimension int
	logger    *slog.Logger
}

type request struct {
	Inputs  []string       `json:"inputs"`
	Options requestOptions `json:"options"`
}

type requestOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// NewBackend creates a HuggingFace backend from config.
func NewBackend(config *ai.Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := resty.New().
		SetBaseURL(config.EmbeddingHost).
		SetAuthToken(config.APIKey).
		SetHeader("Content-Type", "application/json")

	return &Backend{
		client:    client,
		model:     config.EmbeddingModel,
		dimension: config.Dimension,
		logger:    slog.Default().With("component", "huggingface-embedder", "model", config.EmbeddingModel),
	}, nil
}

// Embed sends one feature-extraction request for texts.
func (b *Backend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(request{Inputs: texts, Options: requestOptions{WaitForModel: true}}).
		Post("/models/" + url.PathEscape(b.model))
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ai.ErrTransient, err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
	case code == http.StatusServiceUnavailable:
		b.logger.Warn("model loading", "estimated_time", gjson.GetBytes(resp.Body(), "estimated_time").Float())
		return nil, fmt.Errorf("%w: model warming (503)", ai.ErrTransient)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return nil, fmt.Errorf("%w: huggingface returned %d", ai.ErrUnauthorized, code)
	case code == http.StatusTooManyRequests || code >= 500:
		return nil, fmt.Errorf("%w: huggingface returned %d", ai.ErrTransient, code)
	default:
		return nil, fmt.Errorf("huggingface returned %d: %s", code, truncate(resp.String(), 120))
	}

	return parseVectors(resp.Body(), len(texts))
}

// Dimension returns the configured vector length.
func (b *Backend) Dimension() int { return b.dimension }

// Name identifies the backend in logs.
func (b *Backend) Name() string { return "huggingface" }

// parseVectors accepts the three shapes the API returns: a single vector, one
// vector per input, or per-token vectors per input (mean pooled here).
func parseVectors(body []byte, want int) ([][]float32, error) {
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: %s", errUnexpectedShape, truncate(root.Raw, 120))
	}
	items := root.Array()
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty array", errUnexpectedShape)
	}

	var out [][]float32
	switch first := items[0]; {
	case first.Type == gjson.Number:
		out = [][]float32{toFloats(items)}
	case first.IsArray() && len(first.Array()) > 0 && first.Array()[0].Type == gjson.Number:
		for _, item := range items {
			out = append(out, toFloats(item.Array()))
		}
	case first.IsArray():
		for _, item := range items {
			out = append(out, meanPool(item.Array()))
		}
	default:
		return nil, fmt.Errorf("%w: %s", errUnexpectedShape, truncate(root.Raw, 120))
	}

	if len(out) != want {
		return nil, fmt.Errorf("%w: %d vectors for %d inputs", errUnexpectedShape, len(out), want)
	}
	return out, nil
}

func toFloats(values []gjson.Result) []float32 {
	v := make([]float32, len(values))
	for i, n := range values {
		v[i] = float32(n.Float())
	}
	return v
}

func meanPool(tokens []gjson.Result) []float32 {
	if len(tokens) == 0 {
		return nil
	}
	sum := toFloats(tokens[0].Array())
	for _, tok := range tokens[1:] {
		for i, n := range tok.Array() {
			if i < len(sum) {
				sum[i] += float32(n.Float())
			}
		}
	}
	for i := range sum {
		sum[i] /= float32(len(tokens))
	}
	return sum
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
