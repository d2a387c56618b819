package analysis

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

// Compare contrasts the skill demands of two roles. Both retrievals run
// concurrently. Without a synthesizer the result is a skill-set comparison
// built from chunk metadata.
func (a *Analyzer) Compare(ctx context.Context, roleA, roleB, location string) (*core.ComparisonResult, error) {
	if strings.TrimSpace(roleA) == "" || strings.TrimSpace(roleB) == "" {
		return nil, ErrEmptyQuery
	}
	var filters *storage.Filters
	if location != "" {
		filters = &storage.Filters{Location: location}
	}

	evidence, err := a.retrieveBoth(ctx, []string{roleA, roleB}, filters)
	if err != nil {
		return nil, err
	}
	evA, evB := evidence[0], evidence[1]
	a.logger.Info("comparing roles", "roleA", roleA, "roleB", roleB, "evidenceA", len(evA), "evidenceB", len(evB))

	var result *core.ComparisonResult
	if a.synthesizer == nil {
		result = compareSkillSets(roleA, roleB, evA, evB)
	} else {
		sctx, cancel := context.WithTimeout(ctx, a.synthesisTimeout)
		result, err = a.synthesizer.Compare(sctx, ai.ComparisonRequest{
			RoleA:     roleA,
			RoleB:     roleB,
			EvidenceA: evA,
			EvidenceB: evB,
		})
		cancel()
		if err != nil {
			return nil, fmt.Errorf("synthesizing comparison: %w", err)
		}
	}

	if result.RoleA == "" {
		result.RoleA = roleA
	}
	if result.RoleB == "" {
		result.RoleB = roleB
	}
	result.EvidenceA = len(postingIds(evA))
	result.EvidenceB = len(postingIds(evB))
	result.GeneratedAt = a.now()
	return result, nil
}

func (a *Analyzer) retrieveBoth(ctx context.Context, queries []string, filters *storage.Filters) ([][]*core.Evidence, error) {
	out := make([][]*core.Evidence, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		err := a.pool.Submit(func() {
			defer wg.Done()
			out[i], errs[i] = a.retriever.Retrieve(ctx, q, a.topK, filters)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("retrieving evidence for %q: %w", queries[i], err)
		}
	}
	return out, nil
}

func skillSet(evidence []*core.Evidence) map[string]bool {
	set := map[string]bool{}
	for _, ev := range evidence {
		for _, s := range ev.Metadata.Skills {
			if s = strings.TrimSpace(s); s != "" {
				set[s] = true
			}
		}
	}
	return set
}

// compareSkillSets splits the skills seen in each role's evidence into common
// and unique lists, each sorted.
func compareSkillSets(roleA, roleB string, evA, evB []*core.Evidence) *core.ComparisonResult {
	setA, setB := skillSet(evA), skillSet(evB)
	result := &core.ComparisonResult{
		RoleA:        roleA,
		RoleB:        roleB,
		UniqueToA:    []string{},
		UniqueToB:    []string{},
		CommonSkills: []string{},
	}
	for s := range setA {
		if setB[s] {
			result.CommonSkills = append(result.CommonSkills, s)
		} else {
			result.UniqueToA = append(result.UniqueToA, s)
		}
	}
	for s := range setB {
		if !setA[s] {
			result.UniqueToB = append(result.UniqueToB, s)
		}
	}
	slices.Sort(result.CommonSkills)
	slices.Sort(result.UniqueToA)
	slices.Sort(result.UniqueToB)

	result.MarketDemand = core.LooseString(fmt.Sprintf("%d matching postings for %s, %d for %s",
		len(postingIds(evA)), roleA, len(postingIds(evB)), roleB))
	return result
}
