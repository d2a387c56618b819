package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

// ErrRepositoryRequired is returned when an analysis repository is not provided.
var ErrRepositoryRequired = errors.New("analysis repository required")

// Cache reads and writes memoized analyses.
type Cache struct {
	repo   storage.AnalysisRepository
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used to age rows.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "analysis-cache")
	}
}

// New creates a cache over repo.
func New(repo storage.AnalysisRepository, opts ...Option) (*Cache, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	c := &Cache{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default().With("component", "analysis-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Lookup returns the most recent row for key if its age is at most maxAge.
// A stale or missing row is a miss, not an error. maxAge <= 0 never hits.
func (c *Cache) Lookup(ctx context.Context, key core.AnalysisKey, maxAge time.Duration) (*core.CachedAnalysis, bool, error) {
	if maxAge <= 0 {
		return nil, false, nil
	}

	row, err := c.repo.LatestAnalysis(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		c.logger.Debug("cache miss", "query", key.Query)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	age := c.now().Sub(row.CreatedAt)
	if age > maxAge {
		c.logger.Debug("cache stale", "query", key.Query, "age", age, "maxAge", maxAge)
		return nil, false, nil
	}

	c.logger.Debug("cache hit", "query", key.Query, "age", age)
	return row, true, nil
}

// Store appends a row for key. Duplicate posting ids are dropped, keeping the
// first occurrence, and the remaining count is recorded as PostingCount.
func (c *Cache) Store(ctx context.Context, key core.AnalysisKey, result *core.AnalysisResult, postingIds []core.ID) (*core.CachedAnalysis, error) {
	ids := dedupe(postingIds)
	row := &core.CachedAnalysis{
		Key:          key,
		PostingCount: len(ids),
		PostingIds:   ids,
		CreatedAt:    c.now(),
	}
	if result != nil {
		row.Result = *result
		row.Result.FromCache = false
	}

	if err := c.repo.AppendAnalysis(ctx, row); err != nil {
		return nil, err
	}
	c.logger.Debug("cached analysis", "query", key.Query, "postings", row.PostingCount)
	return row, nil
}

// Recent returns rows created within window, oldest first.
func (c *Cache) Recent(ctx context.Context, window time.Duration) ([]*core.CachedAnalysis, error) {
	return c.repo.AnalysesSince(ctx, c.now().Add(-window))
}

func dedupe(ids []core.ID) []core.ID {
	seen := make(map[core.ID]bool, len(ids))
	out := make([]core.ID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
