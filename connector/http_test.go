package connector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/poiesic/skillscope/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "v", r.URL.Query().Get("q"))
			assert.Equal(t, "secret", r.Header.Get("X-Key"))
			assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
			w.Write([]byte(`{"ok":true}`))
		case "/flaky":
			if n%2 == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{}`))
		case "/denied":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/", Retries: 1})
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		body, err := c.Get(ctx, "/ok", map[string]string{"q": "v"}, map[string]string{"X-Key": "secret"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(body))
	})

	t.Run("retries server errors", func(t *testing.T) {
		calls.Store(0)
		_, err := c.Get(ctx, "/flaky", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("unauthorized", func(t *testing.T) {
		_, err := c.Get(ctx, "/denied", nil, nil)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("bad request", func(t *testing.T) {
		_, err := c.Get(ctx, "/nope", nil, nil)
		assert.ErrorIs(t, err, ErrUpstream)
	})
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain   text\n here", "plain text here"},
		{"<p>Build <b>APIs</b></p><ul><li>Go</li><li>SQL</li></ul>", "Build APIs Go SQL"},
		{"Salary &amp; benefits", "Salary & benefits"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in))
	}
}

func TestMatchesTerm(t *testing.T) {
	assert.True(t, MatchesTerm("", "anything"))
	assert.True(t, MatchesTerm("Data Engineer", "Senior data engineer", ""))
	assert.True(t, MatchesTerm("python engineer", "Backend Engineer", "Python and Go"))
	assert.False(t, MatchesTerm("rust", "Go developer"))
}

func TestEnrich(t *testing.T) {
	raw := core.RawPosting{
		Title:       "Senior Backend Engineer",
		Description: "Remote role building Go services on Kubernetes.",
	}
	Enrich(&raw)
	assert.Equal(t, []string{"Go", "Kubernetes"}, raw.Skills)
	assert.Equal(t, core.ExperienceSenior, raw.ExperienceLevel)
	assert.Equal(t, core.RemoteFull, raw.RemoteMode)

	kept := core.RawPosting{Title: "Intern", Skills: []string{"Excel"}, RemoteMode: core.RemoteOnSite}
	Enrich(&kept)
	assert.Equal(t, []string{"Excel"}, kept.Skills)
	assert.Equal(t, core.RemoteOnSite, kept.RemoteMode)
	assert.Equal(t, core.ExperienceEntry, kept.ExperienceLevel)
}
