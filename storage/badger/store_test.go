package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()
	s, err := NewMemoryStore(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testPosting(title, employer, location string) *core.Posting {
	return &core.Posting{
		Fingerprint: core.NewFingerprint(title, employer, "test"),
		Title:       title,
		Employer:    employer,
		Location:    location,
		Description: title + " at " + employer,
		SourceName:  "test",
		SourceURL:   "https://example.com/" + title,
	}
}

func testChunks(p *core.Posting, vectors ...[]float32) []*core.Chunk {
	chunks := make([]*core.Chunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = &core.Chunk{
			Index:    i,
			Text:     fmt.Sprintf("%s chunk %d", p.Title, i),
			Vector:   v,
			Metadata: p.SnapshotMetadata(),
		}
	}
	return chunks
}

func commit(t *testing.T, s *Store, writes ...storage.PostingWrite) {
	t.Helper()
	batch := storage.NewWriteBatch()
	for _, w := range writes {
		batch.Add(w)
	}
	require.NoError(t, s.Commit(context.Background(), batch))
}

func TestCommit_CreatesPostingsAndChunks(t *testing.T) {
	s := newTestStore(t, WithDimension(3))
	ctx := context.Background()

	p := testPosting("Go Engineer", "Acme", "Remote")
	chunks := testChunks(p, []float32{1, 0, 0}, []float32{0, 1, 0})
	commit(t, s, storage.PostingWrite{Posting: p, Chunks: chunks})

	require.NotZero(t, p.Id)
	assert.False(t, p.IngestedAt.IsZero())
	for _, c := range chunks {
		assert.NotZero(t, c.Id)
		assert.Equal(t, p.Id, c.PostingId)
	}

	got, err := s.GetPosting(ctx, p.Id)
	require.NoError(t, err)
	assert.Equal(t, "Go Engineer", got.Title)

	byFp, err := s.GetByFingerprint(ctx, p.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, p.Id, byFp.Id)

	stored, err := s.GetChunks(ctx, p.Id)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 0, stored[0].Index)
	assert.Equal(t, 1, stored[1].Index)

	byIds, err := s.GetChunksByIds(ctx, chunks[1].Id, 9999, chunks[0].Id)
	require.NoError(t, err)
	require.Len(t, byIds, 2)
	assert.Equal(t, chunks[1].Id, byIds[0].Id)

	count, err := s.CountPostings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCommit_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetPosting(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetByFingerprint(ctx, core.NewFingerprint("a", "b", "c"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	postings, err := s.GetPostings(ctx, 1, 2, 3)
	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestCommit_DuplicateFingerprint(t *testing.T) {
	s := newTestStore(t)
	commit(t, s, storage.PostingWrite{Posting: testPosting("SRE", "Acme", "")})

	dup := testPosting("SRE", "Acme", "")
	batch := storage.NewWriteBatch()
	batch.Add(storage.PostingWrite{Posting: dup})
	err := s.Commit(context.Background(), batch)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	assert.Zero(t, dup.Id)
}

func TestCommit_DimensionMismatchRollsBackBatch(t *testing.T) {
	s := newTestStore(t, WithDimension(3))
	ctx := context.Background()

	good := testPosting("Data Engineer", "Globex", "Berlin")
	goodChunks := testChunks(good, []float32{1, 0, 0})
	bad := testPosting("ML Engineer", "Initech", "Paris")
	badChunks := testChunks(bad, []float32{1, 0})

	batch := storage.NewWriteBatch()
	batch.Add(storage.PostingWrite{Posting: good, Chunks: goodChunks})
	batch.Add(storage.PostingWrite{Posting: bad, Chunks: badChunks})

	err := s.Commit(ctx, batch)
	require.ErrorIs(t, err, core.ErrDimensionMismatch)

	// Nothing from the batch is visible and assigned IDs are cleared.
	assert.Zero(t, good.Id)
	assert.Zero(t, goodChunks[0].Id)
	count, err := s.CountPostings(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The good posting commits on its own.
	commit(t, s, storage.PostingWrite{Posting: good, Chunks: goodChunks})
	assert.NotZero(t, good.Id)
}

func TestCommit_UpdateReplacesChunks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testPosting("Backend Engineer", "Acme", "NYC")
	commit(t, s, storage.PostingWrite{Posting: p, Chunks: testChunks(p, []float32{1, 0}, []float32{0, 1})})
	firstIngest := p.IngestedAt

	p.Description += " Longer description with Kubernetes."
	p.IngestedAt = firstIngest.Add(time.Hour)
	replacement := testChunks(p, []float32{1, 1})
	commit(t, s, storage.PostingWrite{Posting: p, Chunks: replacement, ReplaceChunks: true})

	chunks, err := s.GetChunks(ctx, p.Id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, replacement[0].Id, chunks[0].Id)

	got, err := s.GetPosting(ctx, p.Id)
	require.NoError(t, err)
	assert.Contains(t, got.Description, "Kubernetes")

	// The old ingest index entry is gone: a sweep between the two ingest times keeps the posting.
	deleted, err := s.DeletePostingsBefore(ctx, firstIngest.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestCommit_UpdateMissingPosting(t *testing.T) {
	s := newTestStore(t)
	p := testPosting("Ghost", "Nobody", "")
	p.Id = 77

	batch := storage.NewWriteBatch()
	batch.Add(storage.PostingWrite{Posting: p})
	assert.ErrorIs(t, s.Commit(context.Background(), batch), storage.ErrNotFound)
}

func TestDeletePostings_Cascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	keep := testPosting("Keep", "Acme", "")
	drop := testPosting("Drop", "Acme", "")
	dropChunks := testChunks(drop, []float32{1, 0})
	commit(t, s,
		storage.PostingWrite{Posting: keep, Chunks: testChunks(keep, []float32{0, 1})},
		storage.PostingWrite{Posting: drop, Chunks: dropChunks},
	)

	require.NoError(t, s.DeletePostings(ctx, drop.Id))

	_, err := s.GetPosting(ctx, drop.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetByFingerprint(ctx, drop.Fingerprint)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	orphans, err := s.GetChunksByIds(ctx, dropChunks[0].Id)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	hits, err := s.FindSimilar(ctx, storage.SimilarityQuery{Vector: []float32{1, 0}, TopK: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, keep.Id, hits[0].PostingId)

	assert.ErrorIs(t, s.DeletePostings(ctx, drop.Id), storage.ErrNotFound)
}

func TestDeletePostingsBefore(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t)
	ctx := context.Background()

	old := testPosting("Old", "Acme", "")
	old.IngestedAt = base.Add(-30 * 24 * time.Hour)
	fresh := testPosting("Fresh", "Acme", "")
	fresh.IngestedAt = base
	commit(t, s,
		storage.PostingWrite{Posting: old, Chunks: testChunks(old, []float32{1})},
		storage.PostingWrite{Posting: fresh, Chunks: testChunks(fresh, []float32{1})},
	)

	deleted, err := s.DeletePostingsBefore(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	var titles []string
	require.NoError(t, s.ForEachPosting(ctx, func(p *core.Posting) error {
		titles = append(titles, p.Title)
		return nil
	}))
	assert.Equal(t, []string{"Fresh"}, titles)

	chunks, err := s.GetChunks(ctx, old.Id)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestForEachPosting_StopsOnError(t *testing.T) {
	s := newTestStore(t)
	commit(t, s,
		storage.PostingWrite{Posting: testPosting("A", "Acme", "")},
		storage.PostingWrite{Posting: testPosting("B", "Acme", "")},
	)

	calls := 0
	err := s.ForEachPosting(context.Background(), func(*core.Posting) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}

func TestReplaceChunkVectors(t *testing.T) {
	s := newTestStore(t, WithDimension(2))
	ctx := context.Background()

	p := testPosting("Analyst", "Acme", "")
	chunks := testChunks(p, []float32{1, 0}, []float32{0, 1})
	commit(t, s, storage.PostingWrite{Posting: p, Chunks: chunks})

	t.Run("all vectors replaced", func(t *testing.T) {
		err := s.ReplaceChunkVectors(ctx, p.Id, map[core.ID][]float32{
			chunks[0].Id: {0.5, 0.5},
			chunks[1].Id: {0.25, 0.75},
		})
		require.NoError(t, err)

		stored, err := s.GetChunks(ctx, p.Id)
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5, 0.5}, stored[0].Vector)
		assert.Equal(t, []float32{0.25, 0.75}, stored[1].Vector)
		assert.Equal(t, chunks[0].Text, stored[0].Text)
	})

	t.Run("missing chunk leaves posting untouched", func(t *testing.T) {
		err := s.ReplaceChunkVectors(ctx, p.Id, map[core.ID][]float32{chunks[0].Id: {9, 9}})
		assert.ErrorIs(t, err, storage.ErrInvalidBatch)

		stored, err := s.GetChunks(ctx, p.Id)
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5, 0.5}, stored[0].Vector)
	})

	t.Run("wrong dimension rejected", func(t *testing.T) {
		err := s.ReplaceChunkVectors(ctx, p.Id, map[core.ID][]float32{
			chunks[0].Id: {1, 2, 3},
			chunks[1].Id: {1, 2},
		})
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})
}

func TestClosedStore(t *testing.T) {
	s, err := NewMemoryStore()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.GetPosting(context.Background(), 1)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
