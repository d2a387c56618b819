package storage

import (
	"testing"
	"time"

	"github.com/poiesic/skillscope/core"
	"github.com/stretchr/testify/assert"
)

func TestFilters_Match(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	meta := core.ChunkMetadata{
		Title:    "Senior ML Engineer",
		Location: "San Francisco, CA",
		PostedAt: cutoff.Add(24 * time.Hour),
	}
	undated := meta
	undated.PostedAt = time.Time{}

	tests := []struct {
		name    string
		filters *Filters
		meta    core.ChunkMetadata
		want    bool
	}{
		{"nil filters", nil, meta, true},
		{"location substring case-insensitive", &Filters{Location: "san francisco"}, meta, true},
		{"location mismatch", &Filters{Location: "Berlin"}, meta, false},
		{"role on title", &Filters{Role: "ml engineer"}, meta, true},
		{"role mismatch", &Filters{Role: "designer"}, meta, false},
		{"posted since", &Filters{PostedSince: cutoff}, meta, true},
		{"posted on minimum date included", &Filters{PostedSince: cutoff.Add(24 * time.Hour)}, meta, true},
		{"posted before minimum date excluded", &Filters{PostedSince: cutoff.Add(24*time.Hour + time.Second)}, meta, false},
		{"unknown date excluded when set", &Filters{PostedSince: cutoff}, undated, false},
		{"unknown date kept when unset", &Filters{Location: "CA"}, undated, true},
		{"all must match", &Filters{Location: "CA", Role: "designer"}, meta, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filters.Match(tt.meta))
		})
	}
}

func TestSimilarityQuery(t *testing.T) {
	assert.ErrorIs(t, SimilarityQuery{TopK: 1}.Validate(), ErrInvalidQuery)
	assert.ErrorIs(t, SimilarityQuery{Vector: []float32{1}}.Validate(), ErrInvalidQuery)
	assert.NoError(t, SimilarityQuery{Vector: []float32{1}, TopK: 3}.Validate())

	assert.True(t, SimilarityQuery{}.Accept(-0.5))
	assert.False(t, SimilarityQuery{MinScore: 0.7}.Accept(0.69))
	assert.True(t, SimilarityQuery{MinScore: 0.7}.Accept(0.7))
}

func TestWriteBatch(t *testing.T) {
	b := NewWriteBatch()
	fp := core.NewFingerprint("a", "b", "c")
	b.Add(PostingWrite{Posting: &core.Posting{Fingerprint: fp, Title: "a"}})
	b.Add(PostingWrite{Posting: &core.Posting{Fingerprint: core.NewFingerprint("x", "y", "z")}})
	assert.Equal(t, 2, b.Len())

	w, ok := b.Find(fp)
	assert.True(t, ok)
	assert.Equal(t, "a", w.Posting.Title)

	_, ok = b.Find("missing")
	assert.False(t, ok)

	b.Reset()
	assert.Equal(t, 0, b.Len())
}
