package ingestion

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/skillscope/core"
)

// newPosting builds the stored form of a first-seen listing.
func newPosting(raw *core.RawPosting, now time.Time) *core.Posting {
	return &core.Posting{
		Fingerprint:     raw.Fingerprint(),
		Title:           strings.TrimSpace(raw.Title),
		Employer:        strings.TrimSpace(raw.Employer),
		Location:        strings.TrimSpace(raw.Location),
		Description:     raw.Description,
		Requirements:    raw.Requirements,
		Skills:          core.NormalizeSkills(raw.Skills),
		Salary:          cloneSalary(raw.Salary),
		SourceURL:       raw.SourceURL,
		SourceName:      raw.SourceName,
		PostedAt:        raw.PostedAt,
		IngestedAt:      now,
		UpdatedAt:       now,
		JobType:         raw.JobType,
		ExperienceLevel: raw.ExperienceLevel,
		RemoteMode:      raw.RemoteMode,
	}
}

// isRicher reports whether raw carries more information than existing:
// a strictly longer description or a strictly larger skill set.
func isRicher(existing *core.Posting, raw *core.RawPosting) bool {
	if utf8.RuneCountInString(raw.Description) > utf8.RuneCountInString(existing.Description) {
		return true
	}
	return len(core.NormalizeSkills(raw.Skills)) > len(existing.Skills)
}

// merge returns a copy of existing updated from raw. Non-empty text and salary
// from raw win, skills are unioned, unknown tags and empty fields are filled,
// and the ingest timestamps are refreshed.
func merge(existing *core.Posting, raw *core.RawPosting, now time.Time) *core.Posting {
	p := *existing
	p.Skills = core.UnionSkills(existing.Skills, raw.Skills)
	p.Salary = cloneSalary(existing.Salary)

	if raw.Description != "" {
		p.Description = raw.Description
	}
	if raw.Requirements != "" {
		p.Requirements = raw.Requirements
	}
	if raw.Salary != nil {
		p.Salary = cloneSalary(raw.Salary)
	}
	if p.Location == "" {
		p.Location = strings.TrimSpace(raw.Location)
	}
	if p.SourceURL == "" {
		p.SourceURL = raw.SourceURL
	}
	if p.PostedAt.IsZero() {
		p.PostedAt = raw.PostedAt
	}
	if p.JobType == core.JobTypeUnknown {
		p.JobType = raw.JobType
	}
	if p.ExperienceLevel == core.ExperienceUnknown {
		p.ExperienceLevel = raw.ExperienceLevel
	}
	if p.RemoteMode == core.RemoteUnknown {
		p.RemoteMode = raw.RemoteMode
	}

	p.IngestedAt = now
	p.UpdatedAt = now
	return &p
}

func cloneSalary(s *core.SalaryRange) *core.SalaryRange {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// composeText renders the text that gets chunked for a posting.
func composeText(p *core.Posting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job Title: %s\n", p.Title)
	fmt.Fprintf(&b, "Company: %s\n", p.Employer)
	fmt.Fprintf(&b, "Location: %s\n\n", p.Location)
	fmt.Fprintf(&b, "Description:\n%s\n\n", strings.TrimSpace(p.Description))
	if req := strings.TrimSpace(p.Requirements); req != "" {
		fmt.Fprintf(&b, "Requirements:\n%s\n\n", req)
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s", strings.Join(p.Skills, ", "))
	}
	return strings.TrimSpace(b.String())
}

// prepareChunks splits a posting into chunks and embeds them. Vectors are matched
// to chunks by position. A wrong vector length fails the whole posting.
func (p *Pipeline) prepareChunks(ctx context.Context, posting *core.Posting) ([]*core.Chunk, error) {
	texts := slices.Collect(p.chunker.Segments(composeText(posting)))
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(vectors))
	}

	dim := p.embedder.Dimension()
	metadata := posting.SnapshotMetadata()
	now := p.now()
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("%w: chunk %d has %d, want %d", core.ErrDimensionMismatch, i, len(vectors[i]), dim)
		}
		chunks[i] = &core.Chunk{
			Index:     i,
			Text:      text,
			Vector:    vectors[i],
			Metadata:  metadata,
			CreatedAt: now,
		}
	}
	return chunks, nil
}
