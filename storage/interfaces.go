package storage

import (
	"context"
	"time"

	"github.com/poiesic/skillscope/core"
)

// PostingRepository stores postings and their chunks.
// Implementations must be thread-safe and support concurrent access.
type PostingRepository interface {
	// GetPosting retrieves a posting by ID.
	// Returns ErrNotFound if the posting doesn't exist.
	GetPosting(ctx context.Context, id core.ID) (*core.Posting, error)

	// GetPostings retrieves postings by ID in the order given.
	// Missing IDs are skipped without error.
	GetPostings(ctx context.Context, ids ...core.ID) ([]*core.Posting, error)

	// GetByFingerprint looks a posting up by its deduplication identity.
	// Returns ErrNotFound if no posting carries the fingerprint.
	GetByFingerprint(ctx context.Context, fp core.Fingerprint) (*core.Posting, error)

	// GetChunks returns the chunks of a posting ordered by Index.
	GetChunks(ctx context.Context, postingID core.ID) ([]*core.Chunk, error)

	// GetChunksByIds retrieves chunks by ID in the order given, skipping missing ones.
	GetChunksByIds(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// FindSimilar ranks chunks by cosine similarity to q.Vector after applying
	// q.Filters. Equal scores keep (posting id, chunk index) order.
	FindSimilar(ctx context.Context, q SimilarityQuery) ([]*core.Evidence, error)

	// Commit writes every staged posting and its chunks in one transaction.
	// New postings (Id == 0) and chunks receive IDs from store sequences.
	// Postings marked as replacements have their previous chunks removed first.
	Commit(ctx context.Context, batch *WriteBatch) error

	// DeletePostings removes postings and, in the same transaction, their chunks.
	// Returns ErrNotFound if any posting doesn't exist.
	DeletePostings(ctx context.Context, ids ...core.ID) error

	// DeletePostingsBefore removes postings ingested before cutoff with their chunks.
	// Returns the number of postings removed.
	DeletePostingsBefore(ctx context.Context, cutoff time.Time) (int, error)

	// ForEachPosting calls fn for every posting in ID order. Iteration stops at
	// the first error fn returns.
	ForEachPosting(ctx context.Context, fn func(*core.Posting) error) error

	// CountPostings returns the number of stored postings.
	CountPostings(ctx context.Context) (int, error)

	// ReplaceChunkVectors overwrites the vectors of a posting's chunks atomically.
	// Every chunk of the posting must be present in vectors.
	ReplaceChunkVectors(ctx context.Context, postingID core.ID, vectors map[core.ID][]float32) error
}

// AnalysisRepository stores append-only analysis memo rows.
type AnalysisRepository interface {
	// AppendAnalysis stores a new row. Id and CreatedAt are assigned when zero.
	AppendAnalysis(ctx context.Context, analysis *core.CachedAnalysis) error

	// LatestAnalysis returns the most recently created row for key.
	// Returns ErrNotFound if none exists.
	LatestAnalysis(ctx context.Context, key core.AnalysisKey) (*core.CachedAnalysis, error)

	// AnalysesSince returns rows created at or after since, oldest first.
	AnalysesSince(ctx context.Context, since time.Time) ([]*core.CachedAnalysis, error)
}

// Store is a complete storage backend.
type Store interface {
	PostingRepository
	AnalysisRepository

	// Close releases the backend. The store must not be used afterwards.
	Close() error
}
