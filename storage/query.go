package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/skillscope/core"
)

// Filters restrict similarity search. All set fields must match.
type Filters struct {
	// Location matches chunk metadata location by case-insensitive substring.
	Location string

	// PostedSince keeps chunks posted at or after it.
	// Chunks with an unknown posting date are excluded when set.
	PostedSince time.Time

	// Role matches the posting title by case-insensitive substring.
	Role string
}

// IsEmpty reports whether no filter is set.
func (f *Filters) IsEmpty() bool {
	return f == nil || (f.Location == "" && f.Role == "" && f.PostedSince.IsZero())
}

// Match reports whether chunk metadata passes every set filter.
func (f *Filters) Match(m core.ChunkMetadata) bool {
	if f == nil {
		return true
	}
	if f.Location != "" && !containsFold(m.Location, f.Location) {
		return false
	}
	if f.Role != "" && !containsFold(m.Title, f.Role) {
		return false
	}
	if !f.PostedSince.IsZero() && (m.PostedAt.IsZero() || m.PostedAt.Before(f.PostedSince)) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// SimilarityQuery describes one ranked vector search.
type SimilarityQuery struct {
	Vector   []float32
	TopK     int
	MinScore float32 // When positive, hits scoring below it are dropped

	Filters *Filters
}

// Accept reports whether score passes the MinScore threshold.
func (q SimilarityQuery) Accept(score float32) bool {
	return q.MinScore <= 0 || score >= q.MinScore
}

// Validate rejects queries that cannot be executed.
func (q SimilarityQuery) Validate() error {
	if len(q.Vector) == 0 {
		return fmt.Errorf("%w: empty query vector", ErrInvalidQuery)
	}
	if q.TopK <= 0 {
		return fmt.Errorf("%w: top-k must be positive", ErrInvalidQuery)
	}
	return nil
}

// PostingWrite is one staged posting and the chunk set that belongs to it.
type PostingWrite struct {
	Posting *core.Posting
	Chunks  []*core.Chunk

	// ReplaceChunks deletes the posting's existing chunks before writing Chunks.
	ReplaceChunks bool
}

// WriteBatch accumulates postings for a single transactional Commit.
type WriteBatch struct {
	writes []PostingWrite
}

// NewWriteBatch creates an empty batch.
func NewWriteBatch() *WriteBatch {
	return &WriteBatch{}
}

// Add stages a posting with its chunks.
func (b *WriteBatch) Add(w PostingWrite) {
	b.writes = append(b.writes, w)
}

// Len returns the number of staged postings.
func (b *WriteBatch) Len() int {
	return len(b.writes)
}

// Writes returns the staged postings in insertion order.
func (b *WriteBatch) Writes() []PostingWrite {
	return b.writes
}

// Find returns the staged posting with fingerprint fp.
func (b *WriteBatch) Find(fp core.Fingerprint) (*PostingWrite, bool) {
	for i := range b.writes {
		if b.writes[i].Posting.Fingerprint == fp {
			return &b.writes[i], true
		}
	}
	return nil, false
}

// Reset empties the batch for reuse.
func (b *WriteBatch) Reset() {
	b.writes = b.writes[:0]
}
