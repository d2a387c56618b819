package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

const (
	// DefaultTopK is used when a caller asks for zero or fewer hits.
	DefaultTopK = 5

	// KeywordBoost is added to a hybrid hit's score per matched keyword.
	KeywordBoost float32 = 0.1

	maxHybridScore float32 = 1.0
)

// Retriever finds the posting chunks most relevant to a query.
type Retriever struct {
	repo     storage.PostingRepository
	embedder ai.Embedder
	minScore float32
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets the logger. A nil logger falls back to the default.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "retriever")
		return nil
	}
}

// WithMinScore drops hits scoring below score. Zero disables the threshold.
func WithMinScore(score float32) Option {
	return func(r *Retriever) error {
		if score < -1 || score > 1 {
			return fmt.Errorf("%w: min score %v outside [-1, 1]", ErrInvalidOption, score)
		}
		r.minScore = score
		return nil
	}
}

// NewRetriever creates a retriever over repo using embedder for query vectors.
func NewRetriever(repo storage.PostingRepository, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		repo:     repo,
		embedder: embedder,
		logger:   slog.Default().With("component", "retriever"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Retrieve returns up to topK chunks ranked by similarity to query.
// topK <= 0 means DefaultTopK. filters may be nil.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, filters *storage.Filters) ([]*core.Evidence, error) {
	return r.RetrieveWithMonitor(ctx, query, topK, filters, nil)
}

// RetrieveWithMonitor is Retrieve with observation hooks.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, topK int, filters *storage.Filters, monitor Monitor) ([]*core.Evidence, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	hits, err := r.similar(ctx, query, topK, filters, monitor)
	if err != nil {
		return nil, err
	}
	monitor.Finish(hits)
	return hits, nil
}

func (r *Retriever) similar(ctx context.Context, query string, topK int, filters *storage.Filters, monitor Monitor) ([]*core.Evidence, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("failed to embed query", "err", err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	monitor.AfterEmbedding(vector)

	hits, err := r.repo.FindSimilar(ctx, storage.SimilarityQuery{
		Vector:   vector,
		TopK:     topK,
		MinScore: r.minScore,
		Filters:  filters,
	})
	if err != nil {
		r.logger.Error("similarity search failed", "topK", topK, "err", err)
		return nil, err
	}
	monitor.AfterSimilaritySearch(hits)

	r.logger.Debug("retrieved evidence", "query", query, "topK", topK, "hits", len(hits))
	return hits, nil
}

// GetContext returns the parent postings of the given chunks, each once, in the
// order their first chunk appears. Unknown chunks and postings are skipped.
func (r *Retriever) GetContext(ctx context.Context, chunkIds []core.ID) ([]*core.Posting, error) {
	if len(chunkIds) == 0 {
		return []*core.Posting{}, nil
	}

	chunks, err := r.repo.GetChunksByIds(ctx, chunkIds...)
	if err != nil {
		return nil, err
	}

	seen := make(map[core.ID]bool, len(chunks))
	postingIds := make([]core.ID, 0, len(chunks))
	for _, c := range chunks {
		if c == nil || seen[c.PostingId] {
			continue
		}
		seen[c.PostingId] = true
		postingIds = append(postingIds, c.PostingId)
	}
	if len(postingIds) == 0 {
		return []*core.Posting{}, nil
	}
	return r.repo.GetPostings(ctx, postingIds...)
}

// ContextForEvidence is GetContext over the chunk ids of retrieved evidence.
func (r *Retriever) ContextForEvidence(ctx context.Context, evidence []*core.Evidence) ([]*core.Posting, error) {
	ids := make([]core.ID, 0, len(evidence))
	for _, e := range evidence {
		ids = append(ids, e.ChunkId)
	}
	return r.GetContext(ctx, ids)
}

// HybridSearch over-fetches 2*topK semantic hits, adds KeywordBoost to a hit's
// score for every keyword its text contains (capped at 1.0), re-ranks and
// truncates to topK. Keywords are derived from the query when none are given.
func (r *Retriever) HybridSearch(ctx context.Context, query string, keywords []string, topK int, filters *storage.Filters) ([]*core.Evidence, error) {
	return r.HybridSearchWithMonitor(ctx, query, keywords, topK, filters, nil)
}

// HybridSearchWithMonitor is HybridSearch with observation hooks.
func (r *Retriever) HybridSearchWithMonitor(ctx context.Context, query string, keywords []string, topK int, filters *storage.Filters, monitor Monitor) ([]*core.Evidence, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(keywords) == 0 {
		keywords = keywordsFromQuery(query)
	}

	hits, err := r.similar(ctx, query, 2*topK, filters, monitor)
	if err != nil {
		return nil, err
	}

	for _, hit := range hits {
		matched := countKeywordMatches(hit.Text, keywords)
		hit.Score = min(hit.Score+KeywordBoost*float32(matched), maxHybridScore)
		if matched > 0 {
			monitor.KeywordBoost(hit, matched)
		}
	}

	// Stable so ties keep the repository ranking order.
	slices.SortStableFunc(hits, func(a, b *core.Evidence) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	monitor.Finish(hits)

	return hits, nil
}
