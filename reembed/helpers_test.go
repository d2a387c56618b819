package reembed

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/skillscope/ai/mock"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
	"github.com/poiesic/skillscope/storage/badger"
	"github.com/stretchr/testify/require"
)

const testDim = 3

func setupTestDB(t *testing.T) *badger.Store {
	t.Helper()
	s, err := badger.NewMemoryStore(badger.WithDimension(testDim))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedPostings stores n postings with chunksEach chunks carrying stale vectors.
func seedPostings(t *testing.T, s *badger.Store, n, chunksEach int) []*core.Posting {
	t.Helper()
	batch := storage.NewWriteBatch()
	postings := make([]*core.Posting, n)
	for i := range n {
		p := &core.Posting{
			Fingerprint: core.NewFingerprint(fmt.Sprintf("Engineer %d", i), "Acme", "test"),
			Title:       fmt.Sprintf("Engineer %d", i),
			Employer:    "Acme",
			Description: "Build things",
			SourceName:  "test",
		}
		chunks := make([]*core.Chunk, chunksEach)
		for j := range chunksEach {
			chunks[j] = &core.Chunk{
				Index:    j,
				Text:     fmt.Sprintf("posting %d chunk %d", i, j),
				Vector:   []float32{1, 0, 0},
				Metadata: p.SnapshotMetadata(),
			}
		}
		batch.Add(storage.PostingWrite{Posting: p, Chunks: chunks})
		postings[i] = p
	}
	require.NoError(t, s.Commit(context.Background(), batch))
	return postings
}

// unnormalizedEmbedder returns (1, 2, 2) for every text, magnitude 3.
func unnormalizedEmbedder() *mock.MockEmbedder {
	e := mock.NewMockEmbedderWithDimension(testDim)
	e.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 2, 2}
		}
		return out, nil
	}
	return e
}
