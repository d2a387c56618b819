package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

func TestLikePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Berlin", "%Berlin%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, likePattern(tt.in))
		})
	}
}

func TestPostingRowRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := &core.Posting{
		Id:              5,
		Fingerprint:     core.NewFingerprint("Go Engineer", "Acme", "remoteok"),
		Title:           "Go Engineer",
		Employer:        "Acme",
		Skills:          []string{"Go", "Kubernetes"},
		Salary:          &core.SalaryRange{Min: 1, Max: 2, Currency: "USD"},
		IngestedAt:      now,
		UpdatedAt:       now,
		JobType:         core.JobTypeFullTime,
		ExperienceLevel: core.ExperienceSenior,
		RemoteMode:      core.RemoteFull,
	}
	row := toPostingRow(p)
	assert.Nil(t, row.PostedAt, "unknown posted date is stored as NULL")
	assert.True(t, row.HasSalary)

	back := row.toPosting()
	assert.Equal(t, p, back)

	p.Salary = nil
	row = toPostingRow(p)
	assert.Nil(t, row.toPosting().Salary)
}

func TestChunkRowRoundTrip(t *testing.T) {
	posted := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	c := &core.Chunk{
		Id:        9,
		PostingId: 5,
		Index:     2,
		Text:      "Kubernetes experience",
		Vector:    []float32{0.1, 0.2},
		Metadata:  core.ChunkMetadata{Title: "SRE", Location: "Remote", Skills: []string{"Kubernetes"}, PostedAt: posted},
		CreatedAt: posted,
	}
	row := toChunkRow(c)
	assert.Equal(t, c, row.toChunk())
}

// newIntegrationStore connects to SKILLSCOPE_TEST_DSN and empties the tables.
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("SKILLSCOPE_TEST_DSN")
	if dsn == "" {
		t.Skip("SKILLSCOPE_TEST_DSN not set")
	}
	s, err := Open(context.Background(), dsn, WithDimension(2))
	require.NoError(t, err)
	require.NoError(t, s.db.Exec("TRUNCATE postings, chunks, analyses RESTART IDENTITY CASCADE").Error)
	t.Cleanup(func() { s.Close() })
	return s
}

func integrationPosting(title, location string) (*core.Posting, []*core.Chunk) {
	p := &core.Posting{
		Fingerprint: core.NewFingerprint(title, "Acme", "test"),
		Title:       title,
		Employer:    "Acme",
		Location:    location,
		Description: title,
		SourceName:  "test",
		SourceURL:   "https://example.com",
	}
	return p, []*core.Chunk{{Index: 0, Text: title, Vector: []float32{1, 0}, Metadata: p.SnapshotMetadata()}}
}

func TestIntegration_CommitSearchDelete(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	a, aChunks := integrationPosting("ML Engineer", "Berlin")
	b, bChunks := integrationPosting("Data Analyst", "Paris")
	bChunks[0].Vector = []float32{0, 1}

	batch := storage.NewWriteBatch()
	batch.Add(storage.PostingWrite{Posting: a, Chunks: aChunks})
	batch.Add(storage.PostingWrite{Posting: b, Chunks: bChunks})
	require.NoError(t, s.Commit(ctx, batch))
	require.NotZero(t, a.Id)
	require.NotZero(t, aChunks[0].Id)

	hits, err := s.FindSimilar(ctx, storage.SimilarityQuery{Vector: []float32{1, 0}, TopK: 5})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, a.Id, hits[0].PostingId)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)

	hits, err = s.FindSimilar(ctx, storage.SimilarityQuery{
		Vector: []float32{1, 0}, TopK: 5, Filters: &storage.Filters{Location: "paris"},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, b.Id, hits[0].PostingId)

	dup, dupChunks := integrationPosting("ML Engineer", "Berlin")
	batch = storage.NewWriteBatch()
	batch.Add(storage.PostingWrite{Posting: dup, Chunks: dupChunks})
	assert.ErrorIs(t, s.Commit(ctx, batch), storage.ErrDuplicateKey)
	assert.Zero(t, dup.Id)

	require.NoError(t, s.DeletePostings(ctx, a.Id))
	chunks, err := s.GetChunks(ctx, a.Id)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestIntegration_Analyses(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	key := core.AnalysisKey{Query: "skills", Role: "SRE"}
	base := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, s.AppendAnalysis(ctx, &core.CachedAnalysis{Key: key, Result: core.AnalysisResult{Summary: "old"}, CreatedAt: base}))
	require.NoError(t, s.AppendAnalysis(ctx, &core.CachedAnalysis{Key: key, Result: core.AnalysisResult{Summary: "new"}, CreatedAt: base.Add(time.Second)}))

	latest, err := s.LatestAnalysis(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "new", latest.Result.Summary)

	_, err = s.LatestAnalysis(ctx, core.AnalysisKey{Query: "skills"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
