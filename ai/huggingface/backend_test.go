package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/skillscope/ai"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := NewBackend(ai.NewConfig(
		ai.WithProvider(ai.ProviderHuggingFace),
		ai.WithEmbeddingHost(srv.URL),
		ai.WithEmbeddingModel("sentence-transformers/all-MiniLM-L6-v2"),
		ai.WithAPIKey("hf_test"),
		ai.WithDimension(3),
	))
	require.NoError(t, err)
	return b
}

func TestBackend_Embed(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/sentence-transformers%2Fall-MiniLM-L6-v2", r.URL.EscapedPath())
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))

		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Options.WaitForModel)

		out := make([][]float32, len(req.Inputs))
		for i := range req.Inputs {
			out[i] = []float32{float32(i), 0.5, 1}
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	vecs, err := b.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 0.5, 1}, {1, 0.5, 1}}, vecs)
}

func TestBackend_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusServiceUnavailable, ai.ErrTransient},
		{http.StatusTooManyRequests, ai.ErrTransient},
		{http.StatusBadGateway, ai.ErrTransient},
		{http.StatusUnauthorized, ai.ErrUnauthorized},
		{http.StatusForbidden, ai.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope","estimated_time":12.5}`))
			})
			_, err := b.Embed(context.Background(), []string{"a"})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := b.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ai.ErrTransient)
	assert.NotErrorIs(t, err, ai.ErrUnauthorized)
}

func TestBackend_WarmingRetriedByBatchEmbedder(t *testing.T) {
	var calls atomic.Int32
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([]float32{1, 2, 3})
	})

	e, err := ai.NewBatchEmbedder(b, ai.WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	vec, err := e.EmbedText(context.Background(), "warm me")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestParseVectors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		expect  [][]float32
		wantErr bool
	}{
		{"single vector", `[0.1, 0.2]`, 1, [][]float32{{0.1, 0.2}}, false},
		{"batch", `[[1, 2], [3, 4]]`, 2, [][]float32{{1, 2}, {3, 4}}, false},
		{"token level mean pooled", `[[[1, 2], [3, 4]]]`, 1, [][]float32{{2, 3}}, false},
		{"object", `{"error":"x"}`, 1, nil, true},
		{"empty", `[]`, 1, nil, true},
		{"arity mismatch", `[[1, 2]]`, 2, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVectors([]byte(tt.body), tt.want)
			if tt.wantErr {
				assert.ErrorIs(t, err, errUnexpectedShape)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.expect))
			for i := range got {
				assert.InDeltaSlice(t, tt.expect[i], got[i], 1e-6)
			}
		})
	}
}
