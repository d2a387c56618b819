package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

const (
	// DefaultTopK is the number of chunks retrieved per analysis.
	DefaultTopK = 10

	// DefaultSampleSize is the number of postings attached to a result.
	DefaultSampleSize = 5

	// DefaultSynthesisTimeout bounds one synthesizer call.
	DefaultSynthesisTimeout = 2 * time.Minute
)

var noResultSuggestions = []string{
	"Try broader search terms",
	"Check spelling",
	"Try different job titles",
}

// Retriever finds evidence and the postings behind it. *search.Retriever
// satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, filters *storage.Filters) ([]*core.Evidence, error)
	ContextForEvidence(ctx context.Context, evidence []*core.Evidence) ([]*core.Posting, error)
}

// Memo is the analysis cache. *cache.Cache satisfies it.
type Memo interface {
	Lookup(ctx context.Context, key core.AnalysisKey, maxAge time.Duration) (*core.CachedAnalysis, bool, error)
	Store(ctx context.Context, key core.AnalysisKey, result *core.AnalysisResult, postingIds []core.ID) (*core.CachedAnalysis, error)
	Recent(ctx context.Context, window time.Duration) ([]*core.CachedAnalysis, error)
}

// AnalyzeRequest describes one skill analysis.
type AnalyzeRequest struct {
	Query    string
	Role     string // Optional title filter
	Location string // Optional location filter
	UseCache bool
	MaxAge   time.Duration // Freshness window for cached results
}

func (r AnalyzeRequest) key() core.AnalysisKey {
	return core.AnalysisKey{Query: r.Query, Role: r.Role, Location: r.Location}
}

func (r AnalyzeRequest) filters() *storage.Filters {
	f := &storage.Filters{Role: r.Role, Location: r.Location}
	if f.IsEmpty() {
		return nil
	}
	return f
}

// Analyzer runs analyses, comparisons and trend reports.
type Analyzer struct {
	retriever        Retriever
	synthesizer      ai.Synthesizer
	memo             Memo
	topK             int
	sampleSize       int
	synthesisTimeout time.Duration
	poolSize         int
	pool             *ants.Pool
	now              func() time.Time
	logger           *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithTopK sets how many chunks are retrieved per analysis.
func WithTopK(k int) Option {
	return func(a *Analyzer) error {
		if k < 1 {
			return fmt.Errorf("%w: topK %d", ErrInvalidOption, k)
		}
		a.topK = k
		return nil
	}
}

// WithSampleSize sets how many postings are attached to each result.
func WithSampleSize(n int) Option {
	return func(a *Analyzer) error {
		if n < 0 {
			return fmt.Errorf("%w: sample size %d", ErrInvalidOption, n)
		}
		a.sampleSize = n
		return nil
	}
}

// WithSynthesisTimeout bounds each synthesizer call.
func WithSynthesisTimeout(d time.Duration) Option {
	return func(a *Analyzer) error {
		if d <= 0 {
			return fmt.Errorf("%w: synthesis timeout %s", ErrInvalidOption, d)
		}
		a.synthesisTimeout = d
		return nil
	}
}

// WithPoolSize sets how many retrievals Compare runs at once.
func WithPoolSize(n int) Option {
	return func(a *Analyzer) error {
		a.poolSize = max(n, 1)
		return nil
	}
}

// WithClock overrides the time source for GeneratedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) error {
		if now != nil {
			a.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger.With("component", "analyzer")
		return nil
	}
}

// NewAnalyzer creates an analyzer. synthesizer and memo may be nil: without a
// synthesizer Analyze fails with ai.ErrNoSynthesizer and Compare falls back to
// a skill-set comparison; without a memo nothing is cached.
// Call Close when done.
func NewAnalyzer(retriever Retriever, synthesizer ai.Synthesizer, memo Memo, opts ...Option) (*Analyzer, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}

	a := &Analyzer{
		retriever:        retriever,
		synthesizer:      synthesizer,
		memo:             memo,
		topK:             DefaultTopK,
		sampleSize:       DefaultSampleSize,
		synthesisTimeout: DefaultSynthesisTimeout,
		poolSize:         2,
		now:              func() time.Time { return time.Now().UTC() },
		logger:           slog.Default().With("component", "analyzer"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(a.poolSize)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	return a, nil
}

// Close releases the worker pool.
func (a *Analyzer) Close() {
	if a.pool != nil {
		a.pool.Release()
	}
}

// Analyze produces a skill analysis for req. A fresh cached row is returned
// without touching the retriever or synthesizer. When retrieval finds nothing
// the response carries NoResults instead of an error.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*core.AnalysisResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	logger := a.logger.With("requestId", uuid.NewString(), "query", req.Query)
	key := req.key()

	if req.UseCache && a.memo != nil {
		row, hit, err := a.memo.Lookup(ctx, key, req.MaxAge)
		switch {
		case err != nil:
			logger.Warn("cache lookup failed", "err", err)
		case hit:
			logger.Info("returning cached analysis", "cachedAt", row.CreatedAt)
			result := row.Result
			result.FromCache = true
			result.GeneratedAt = row.CreatedAt
			return &core.AnalysisResponse{Result: &result}, nil
		}
	}

	logger.Info("starting analysis", "role", req.Role, "location", req.Location)
	evidence, err := a.retriever.Retrieve(ctx, req.Query, a.topK, req.filters())
	if err != nil {
		return nil, fmt.Errorf("retrieving evidence: %w", err)
	}
	if len(evidence) == 0 {
		logger.Warn("no results found")
		return &core.AnalysisResponse{NoResults: &core.NoResults{
			Error:       "No relevant job postings found",
			Query:       req.Query,
			Suggestions: append([]string(nil), noResultSuggestions...),
		}}, nil
	}

	postings, err := a.retriever.ContextForEvidence(ctx, evidence)
	if err != nil {
		return nil, fmt.Errorf("loading posting context: %w", err)
	}

	if a.synthesizer == nil {
		return nil, ai.ErrNoSynthesizer
	}
	sctx, cancel := context.WithTimeout(ctx, a.synthesisTimeout)
	result, err := a.synthesizer.Synthesize(sctx, ai.SynthesisRequest{
		Query:    req.Query,
		Role:     req.Role,
		Evidence: evidence,
	})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("synthesizing analysis: %w", err)
	}

	ids := postingIds(evidence)
	result.Citations = citations(evidence)
	result.TotalPostingsAnalyzed = len(ids)
	result.PostingsSample = a.sample(postings)
	result.Query = req.Query
	result.GeneratedAt = a.now()
	result.FromCache = false

	if a.memo != nil {
		if _, err := a.memo.Store(ctx, key, result, ids); err != nil {
			logger.Warn("failed to cache analysis", "err", err)
		}
	}

	logger.Info("analysis complete", "evidence", len(evidence), "postings", len(ids))
	return &core.AnalysisResponse{Result: result}, nil
}

func (a *Analyzer) sample(postings []*core.Posting) []core.PostingSummary {
	n := min(len(postings), a.sampleSize)
	out := make([]core.PostingSummary, n)
	for i := range n {
		out[i] = postings[i].Summarize()
	}
	return out
}

// postingIds returns the distinct parent ids of evidence in first-seen order.
func postingIds(evidence []*core.Evidence) []core.ID {
	seen := make(map[core.ID]bool, len(evidence))
	var ids []core.ID
	for _, ev := range evidence {
		if seen[ev.PostingId] {
			continue
		}
		seen[ev.PostingId] = true
		ids = append(ids, ev.PostingId)
	}
	return ids
}

// citations returns one citation per posting, scored by its best-ranked chunk.
func citations(evidence []*core.Evidence) []core.Citation {
	seen := make(map[core.ID]bool, len(evidence))
	var out []core.Citation
	for _, ev := range evidence {
		if seen[ev.PostingId] {
			continue
		}
		seen[ev.PostingId] = true
		out = append(out, core.Citation{
			PostingId:      ev.PostingId,
			Title:          ev.Metadata.Title,
			Employer:       ev.Metadata.Employer,
			SourceURL:      ev.Metadata.SourceURL,
			RelevanceScore: ev.Score,
		})
	}
	return out
}
