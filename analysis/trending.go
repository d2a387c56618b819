package analysis

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/skillscope/core"
)

// DefaultTrendingLimit is the number of skills in a trending report.
const DefaultTrendingLimit = 20

// TrendingSkills counts top-skill mentions across analyses cached within
// window. A skill's trend score is its mention count divided by the number of
// analyses considered. limit <= 0 uses DefaultTrendingLimit.
func (a *Analyzer) TrendingSkills(ctx context.Context, window time.Duration, limit int) (*core.TrendingReport, error) {
	if a.memo == nil {
		return nil, fmt.Errorf("%w: trending skills need an analysis cache", ErrInvalidOption)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: window %s", ErrInvalidOption, window)
	}
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}

	rows, err := a.memo.Recent(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("loading recent analyses: %w", err)
	}

	counts := map[string]int{}
	total := 0
	for _, row := range rows {
		for _, insight := range row.Result.TopSkills {
			if s := strings.TrimSpace(insight.Skill); s != "" {
				counts[s]++
			}
		}
		total += row.PostingCount
	}

	skills := make([]core.TrendingSkill, 0, len(counts))
	for s, n := range counts {
		skills = append(skills, core.TrendingSkill{
			Skill:        s,
			MentionCount: n,
			TrendScore:   float64(n) / float64(len(rows)),
		})
	}
	slices.SortFunc(skills, func(x, y core.TrendingSkill) int {
		if c := cmp.Compare(y.MentionCount, x.MentionCount); c != 0 {
			return c
		}
		return cmp.Compare(x.Skill, y.Skill)
	})
	if len(skills) > limit {
		skills = skills[:limit]
	}

	a.logger.Info("computed trending skills", "analyses", len(rows), "skills", len(skills))
	return &core.TrendingReport{
		Skills:                skills,
		WindowDays:            int(window / (24 * time.Hour)),
		TotalAnalyses:         len(rows),
		TotalPostingsAnalyzed: total,
		GeneratedAt:           a.now(),
	}, nil
}
