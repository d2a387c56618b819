package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/core"
)

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *ai.Config {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return ai.NewConfig(
		ai.WithProvider(ai.ProviderOpenAI),
		ai.WithHost(srv.URL),
		ai.WithEmbeddingModel("test-embed"),
		ai.WithDimension(3),
		ai.WithSynthesizerModel("test-chat"),
	)
}

func TestBackend_Embed(t *testing.T) {
	cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), r.URL.Path)
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float32{float32(i), 1, 0}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": "test-embed"})
	})

	backend, err := NewBackend(cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, backend.Dimension())
	assert.Equal(t, "openai", backend.Name())

	vecs, err := backend.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 1, 0}, vecs[1])
}

func TestSynthesizer_Synthesize(t *testing.T) {
	var calls atomic.Int32
	cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		content := "```json\n{\"summary\":\"Python dominates\",\"top_skills\":[{\"skill\":\"Python\",\"frequency\":80,\"necessity_level\":\"mandatory\"}]}\n```"
		if n == 1 {
			content = "not json at all"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(content))
	})

	synth, err := NewSynthesizer(cfg)
	require.NoError(t, err)

	result, err := synth.Synthesize(context.Background(), ai.SynthesisRequest{
		Query: "ml engineer",
		Evidence: []*core.Evidence{{
			Text:     "Python and PyTorch",
			Score:    0.9,
			Metadata: core.ChunkMetadata{Title: "ML Engineer", Employer: "Acme"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "malformed response should be regenerated")
	assert.Equal(t, "Python dominates", result.Summary)
	require.Len(t, result.TopSkills, 1)
	assert.Equal(t, core.LooseString("80"), result.TopSkills[0].Frequency)
}

func TestSynthesizer_Compare(t *testing.T) {
	cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(`{"common_skills":["SQL"],"unique_to_role_a":["Spark"],"unique_to_role_b":["Tableau"]}`))
	})

	synth, err := NewSynthesizer(cfg)
	require.NoError(t, err)

	result, err := synth.Compare(context.Background(), ai.ComparisonRequest{RoleA: "data engineer", RoleB: "data analyst"})
	require.NoError(t, err)
	assert.Equal(t, "data engineer", result.RoleA)
	assert.Equal(t, "data analyst", result.RoleB)
	assert.Equal(t, []string{"SQL"}, result.CommonSkills)
}

func TestNewSynthesizer_RequiresModel(t *testing.T) {
	cfg := ai.NewConfig(ai.WithProvider(ai.ProviderOpenAI))
	_, err := NewSynthesizer(cfg)
	assert.ErrorIs(t, err, ai.ErrNoSynthesizer)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{errors.New("API returned unexpected status code: 401: invalid_api_key"), ai.ErrUnauthorized},
		{errors.New("API returned unexpected status code: 503"), ai.ErrTransient},
		{errors.New("Rate limit reached"), ai.ErrTransient},
		{fmt.Errorf("post: %w", context.DeadlineExceeded), ai.ErrTransient},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.ErrorIs(t, classifyError(tt.err), tt.want)
		})
	}

	plain := errors.New("model not found")
	assert.Equal(t, plain, classifyError(plain))
	assert.ErrorIs(t, classifyError(context.Canceled), context.Canceled)
	assert.NoError(t, classifyError(nil))
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "missing key quote", in: `{skill": "Go"}`, want: `{"skill": "Go"}`},
		{name: "missing quote after comma", in: `{"a": 1, necessity_level": "x"}`, want: `{"a": 1, "necessity_level": "x"}`},
		{name: "already valid", in: `{"ok": true}`, want: `{"ok": true}`},
		{name: "trailing commas", in: `{"skills": ["Go", "SQL",], "n": 2,}`, want: `{"skills": ["Go", "SQL"], "n": 2}`},
		{name: "code fence", in: "```json\n{\"ok\": true}\n```", want: `{"ok": true}`},
		{name: "surrounding prose", in: `Here is the analysis: {"ok": true} Hope this helps.`, want: `{"ok": true}`},
		{name: "comma inside string", in: `{"summary": "Go, }"}`, want: `{"summary": "Go, }"}`},
		{name: "escaped quote", in: `{"summary": "say \"hi\",", "n": 1}`, want: `{"summary": "say \"hi\",", "n": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanJSON(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, json.Valid([]byte(got)), got)
		})
	}
}

func TestFormatEvidence(t *testing.T) {
	long := strings.Repeat("x", evidenceExcerpt+50)
	out := formatEvidence([]*core.Evidence{
		{Text: long, Score: 0.5, Metadata: core.ChunkMetadata{Title: "Go Dev"}},
		{Text: "short", Score: 0.25},
	})
	assert.Contains(t, out, "[Job Posting 1]")
	assert.Contains(t, out, "[Job Posting 2]")
	assert.Contains(t, out, "Company: N/A")
	assert.Contains(t, out, strings.Repeat("x", evidenceExcerpt)+"...")
	assert.NotContains(t, out, strings.Repeat("x", evidenceExcerpt+1))
	assert.Contains(t, out, "Relevance Score: 0.25")
}
