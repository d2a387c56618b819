package mock

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/core"
)

// MockSynthesizer is a test double for ai.Synthesizer.
type MockSynthesizer struct {
	SynthesizeFunc func(ctx context.Context, req ai.SynthesisRequest) (*core.AnalysisResult, error)
	CompareFunc    func(ctx context.Context, req ai.ComparisonRequest) (*core.ComparisonResult, error)

	mu        sync.Mutex
	callCount int
}

// NewMockSynthesizer creates a synthesizer with default deterministic behavior.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize ranks skills by how many evidence items mention them.
func (m *MockSynthesizer) Synthesize(ctx context.Context, req ai.SynthesisRequest) (*core.AnalysisResult, error) {
	m.count()
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, req)
	}

	counts := map[string]int{}
	for _, ev := range req.Evidence {
		for _, s := range ev.Metadata.Skills {
			counts[s]++
		}
	}
	skills := make([]string, 0, len(counts))
	for s := range counts {
		skills = append(skills, s)
	}
	slices.SortFunc(skills, func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})

	result := &core.AnalysisResult{
		Summary: fmt.Sprintf("%d evidence items for %q", len(req.Evidence), req.Query),
	}
	for _, s := range skills {
		result.TopSkills = append(result.TopSkills, core.SkillInsight{
			Skill:     s,
			Frequency: core.LooseString(fmt.Sprint(counts[s])),
		})
	}
	return result, nil
}

// Compare returns a fixed comparison naming both roles.
func (m *MockSynthesizer) Compare(ctx context.Context, req ai.ComparisonRequest) (*core.ComparisonResult, error) {
	m.count()
	if m.CompareFunc != nil {
		return m.CompareFunc(ctx, req)
	}
	return &core.ComparisonResult{
		RoleA:        req.RoleA,
		RoleB:        req.RoleB,
		MarketDemand: core.LooseString(fmt.Sprintf("%d vs %d postings", len(req.EvidenceA), len(req.EvidenceB))),
	}, nil
}

func (m *MockSynthesizer) count() {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()
}

// CallCount returns the number of times any method was called.
func (m *MockSynthesizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
