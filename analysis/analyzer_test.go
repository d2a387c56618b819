package analysis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/ai/mock"
	"github.com/poiesic/skillscope/cache"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
	"github.com/poiesic/skillscope/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	mu       sync.Mutex
	byQuery  map[string][]*core.Evidence
	postings map[core.ID]*core.Posting
	filters  []*storage.Filters
	calls    atomic.Int32
	err      error
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, _ int, filters *storage.Filters) ([]*core.Evidence, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.filters = append(f.filters, filters)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.byQuery[query], nil
}

func (f *fakeRetriever) ContextForEvidence(_ context.Context, evidence []*core.Evidence) ([]*core.Posting, error) {
	var out []*core.Posting
	for _, id := range postingIds(evidence) {
		out = append(out, f.postings[id])
	}
	return out, nil
}

func evidence(postingId core.ID, score float32, title string, skills ...string) *core.Evidence {
	return &core.Evidence{
		ChunkId:   postingId*10 + core.ID(len(skills)),
		PostingId: postingId,
		Text:      title,
		Score:     score,
		Metadata: core.ChunkMetadata{
			Title:     title,
			Employer:  "Acme",
			SourceURL: "https://example.com/" + title,
			Skills:    skills,
		},
	}
}

func newRetriever() *fakeRetriever {
	r := &fakeRetriever{
		byQuery: map[string][]*core.Evidence{
			"data engineer": {
				evidence(1, 0.9, "Data Engineer", "Python", "SQL"),
				evidence(2, 0.8, "Senior Data Engineer", "Python", "Spark"),
				evidence(1, 0.7, "Data Engineer", "Python"),
			},
			"ml engineer": {
				evidence(3, 0.95, "ML Engineer", "Python", "PyTorch"),
			},
		},
		postings: map[core.ID]*core.Posting{},
	}
	for id := core.ID(1); id <= 7; id++ {
		r.postings[id] = &core.Posting{Id: id, Title: "posting", Employer: "Acme"}
	}
	return r
}

func newCache(t *testing.T, now func() time.Time) *cache.Cache {
	t.Helper()
	s, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	c, err := cache.New(s, cache.WithClock(now))
	require.NoError(t, err)
	return c
}

func newAnalyzer(t *testing.T, r Retriever, s ai.Synthesizer, m Memo, opts ...Option) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(r, s, m, opts...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNewAnalyzer(t *testing.T) {
	_, err := NewAnalyzer(nil, nil, nil)
	assert.Equal(t, ErrRetrieverRequired, err)

	tests := []struct {
		name string
		opt  Option
	}{
		{"zero topK", WithTopK(0)},
		{"negative sample", WithSampleSize(-1)},
		{"zero timeout", WithSynthesisTimeout(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnalyzer(newRetriever(), nil, nil, tt.opt)
			assert.ErrorIs(t, err, ErrInvalidOption)
		})
	}
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("miss synthesizes and caches", func(t *testing.T) {
		r := newRetriever()
		synth := mock.NewMockSynthesizer()
		memo := newCache(t, clock)
		a := newAnalyzer(t, r, synth, memo, WithClock(clock))

		resp, err := a.Analyze(ctx, AnalyzeRequest{Query: "data engineer", UseCache: true, MaxAge: time.Hour})
		require.NoError(t, err)
		require.Nil(t, resp.NoResults)
		res := resp.Result

		assert.False(t, res.FromCache)
		assert.Equal(t, "data engineer", res.Query)
		assert.Equal(t, now, res.GeneratedAt)
		assert.Equal(t, 2, res.TotalPostingsAnalyzed)
		require.Len(t, res.Citations, 2)
		assert.Equal(t, core.ID(1), res.Citations[0].PostingId)
		assert.InDelta(t, 0.9, res.Citations[0].RelevanceScore, 1e-6)
		assert.Len(t, res.PostingsSample, 2)
		assert.Equal(t, "Python", res.TopSkills[0].Skill)

		row, hit, err := memo.Lookup(ctx, core.AnalysisKey{Query: "data engineer"}, time.Hour)
		require.NoError(t, err)
		require.True(t, hit)
		assert.Equal(t, []core.ID{1, 2}, row.PostingIds)
	})

	t.Run("hit bypasses retriever and synthesizer", func(t *testing.T) {
		r := newRetriever()
		synth := mock.NewMockSynthesizer()
		memo := newCache(t, clock)
		a := newAnalyzer(t, r, synth, memo, WithClock(clock))
		req := AnalyzeRequest{Query: "data engineer", UseCache: true, MaxAge: time.Hour}

		_, err := a.Analyze(ctx, req)
		require.NoError(t, err)
		resp, err := a.Analyze(ctx, req)
		require.NoError(t, err)

		assert.True(t, resp.Result.FromCache)
		assert.Equal(t, int32(1), r.calls.Load())
		assert.Equal(t, 1, synth.CallCount())
	})

	t.Run("use cache false always recomputes", func(t *testing.T) {
		r := newRetriever()
		synth := mock.NewMockSynthesizer()
		a := newAnalyzer(t, r, synth, newCache(t, clock))
		req := AnalyzeRequest{Query: "data engineer", MaxAge: time.Hour}

		for range 2 {
			resp, err := a.Analyze(ctx, req)
			require.NoError(t, err)
			assert.False(t, resp.Result.FromCache)
		}
		assert.Equal(t, 2, synth.CallCount())
	})

	t.Run("no evidence returns suggestions", func(t *testing.T) {
		synth := mock.NewMockSynthesizer()
		a := newAnalyzer(t, newRetriever(), synth, nil)

		resp, err := a.Analyze(ctx, AnalyzeRequest{Query: "astronaut"})
		require.NoError(t, err)
		require.Nil(t, resp.Result)
		require.NotNil(t, resp.NoResults)
		assert.Equal(t, "astronaut", resp.NoResults.Query)
		assert.NotEmpty(t, resp.NoResults.Suggestions)
		assert.Zero(t, synth.CallCount())
	})

	t.Run("role and location become filters", func(t *testing.T) {
		r := newRetriever()
		a := newAnalyzer(t, r, mock.NewMockSynthesizer(), nil)

		_, err := a.Analyze(ctx, AnalyzeRequest{Query: "data engineer", Role: "senior", Location: "Berlin"})
		require.NoError(t, err)
		_, err = a.Analyze(ctx, AnalyzeRequest{Query: "data engineer"})
		require.NoError(t, err)

		require.Len(t, r.filters, 2)
		assert.Equal(t, &storage.Filters{Role: "senior", Location: "Berlin"}, r.filters[0])
		assert.Nil(t, r.filters[1])
	})

	t.Run("sample is capped", func(t *testing.T) {
		r := newRetriever()
		a := newAnalyzer(t, r, mock.NewMockSynthesizer(), nil, WithSampleSize(1))

		resp, err := a.Analyze(ctx, AnalyzeRequest{Query: "data engineer"})
		require.NoError(t, err)
		assert.Len(t, resp.Result.PostingsSample, 1)
	})

	t.Run("empty query", func(t *testing.T) {
		a := newAnalyzer(t, newRetriever(), nil, nil)
		_, err := a.Analyze(ctx, AnalyzeRequest{Query: "  "})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("missing synthesizer", func(t *testing.T) {
		a := newAnalyzer(t, newRetriever(), nil, nil)
		_, err := a.Analyze(ctx, AnalyzeRequest{Query: "data engineer"})
		assert.ErrorIs(t, err, ai.ErrNoSynthesizer)
	})

	t.Run("retriever error surfaces", func(t *testing.T) {
		r := newRetriever()
		r.err = errors.New("store closed")
		a := newAnalyzer(t, r, mock.NewMockSynthesizer(), nil)
		_, err := a.Analyze(ctx, AnalyzeRequest{Query: "data engineer"})
		assert.ErrorIs(t, err, r.err)
	})

	t.Run("synthesis is bounded by timeout", func(t *testing.T) {
		synth := mock.NewMockSynthesizer()
		synth.SynthesizeFunc = func(ctx context.Context, _ ai.SynthesisRequest) (*core.AnalysisResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		a := newAnalyzer(t, newRetriever(), synth, nil, WithSynthesisTimeout(10*time.Millisecond))
		_, err := a.Analyze(ctx, AnalyzeRequest{Query: "data engineer"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

type brokenMemo struct{ stores int }

func (b *brokenMemo) Lookup(context.Context, core.AnalysisKey, time.Duration) (*core.CachedAnalysis, bool, error) {
	return nil, false, errors.New("lookup failed")
}

func (b *brokenMemo) Store(context.Context, core.AnalysisKey, *core.AnalysisResult, []core.ID) (*core.CachedAnalysis, error) {
	b.stores++
	return nil, errors.New("store failed")
}

func (b *brokenMemo) Recent(context.Context, time.Duration) ([]*core.CachedAnalysis, error) {
	return nil, errors.New("recent failed")
}

func TestAnalyze_CacheErrorsAreSwallowed(t *testing.T) {
	memo := &brokenMemo{}
	a := newAnalyzer(t, newRetriever(), mock.NewMockSynthesizer(), memo)

	resp, err := a.Analyze(context.Background(), AnalyzeRequest{Query: "data engineer", UseCache: true, MaxAge: time.Hour})
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 1, memo.stores)
}
