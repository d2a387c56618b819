package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/ai/mock"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_SkillSetFallback(t *testing.T) {
	r := newRetriever()
	a := newAnalyzer(t, r, nil, nil)

	got, err := a.Compare(context.Background(), "data engineer", "ml engineer", "Remote")
	require.NoError(t, err)

	assert.Equal(t, "data engineer", got.RoleA)
	assert.Equal(t, "ml engineer", got.RoleB)
	assert.Equal(t, []string{"Python"}, got.CommonSkills)
	assert.Equal(t, []string{"SQL", "Spark"}, got.UniqueToA)
	assert.Equal(t, []string{"PyTorch"}, got.UniqueToB)
	assert.Equal(t, 2, got.EvidenceA)
	assert.Equal(t, 1, got.EvidenceB)
	assert.Equal(t, int32(2), r.calls.Load())
	for _, f := range r.filters {
		assert.Equal(t, &storage.Filters{Location: "Remote"}, f)
	}
}

func TestCompare_UsesSynthesizer(t *testing.T) {
	synth := mock.NewMockSynthesizer()
	var seen ai.ComparisonRequest
	synth.CompareFunc = func(_ context.Context, req ai.ComparisonRequest) (*core.ComparisonResult, error) {
		seen = req
		return &core.ComparisonResult{CommonSkills: []string{"Python"}, MarketDemand: "strong"}, nil
	}
	a := newAnalyzer(t, newRetriever(), synth, nil)

	got, err := a.Compare(context.Background(), "data engineer", "ml engineer", "")
	require.NoError(t, err)

	assert.Len(t, seen.EvidenceA, 3)
	assert.Len(t, seen.EvidenceB, 1)
	assert.Equal(t, "data engineer", got.RoleA)
	assert.Equal(t, core.LooseString("strong"), got.MarketDemand)
	assert.False(t, got.GeneratedAt.IsZero())
}

func TestCompare_Errors(t *testing.T) {
	t.Run("blank role", func(t *testing.T) {
		a := newAnalyzer(t, newRetriever(), nil, nil)
		_, err := a.Compare(context.Background(), "data engineer", " ", "")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("retrieval failure", func(t *testing.T) {
		r := newRetriever()
		r.err = errors.New("index unavailable")
		a := newAnalyzer(t, r, nil, nil)
		_, err := a.Compare(context.Background(), "data engineer", "ml engineer", "")
		assert.ErrorIs(t, err, r.err)
	})

	t.Run("synthesizer failure", func(t *testing.T) {
		synth := mock.NewMockSynthesizer()
		boom := errors.New("model offline")
		synth.CompareFunc = func(context.Context, ai.ComparisonRequest) (*core.ComparisonResult, error) {
			return nil, boom
		}
		a := newAnalyzer(t, newRetriever(), synth, nil)
		_, err := a.Compare(context.Background(), "data engineer", "ml engineer", "")
		assert.ErrorIs(t, err, boom)
	})
}
