package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/chunker"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

// DefaultCommitBatchSize is the number of postings committed per transaction.
const DefaultCommitBatchSize = 10

// Pipeline deduplicates, chunks, embeds and stores raw postings.
// A Pipeline is safe for concurrent use; each Ingest call has its own batch.
type Pipeline struct {
	repo      storage.PostingRepository
	embedder  ai.Embedder
	chunker   *chunker.Chunker
	batchSize int
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithChunking sets the chunk size and overlap in runes.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		c, err := chunker.New(size, overlap)
		if err != nil {
			return err
		}
		p.chunker = c
		return nil
	}
}

// WithCommitBatchSize sets how many postings are committed per transaction.
func WithCommitBatchSize(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidBatchSize, n)
		}
		p.batchSize = n
		return nil
	}
}

// WithClock overrides the time source for ingest timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now != nil {
			p.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repo storage.PostingRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		repo:      repo,
		embedder:  embedder,
		chunker:   chunker.Default(),
		batchSize: DefaultCommitBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// outcome tracks what a staged posting will contribute to the counters once
// it is committed.
type outcome struct {
	created bool
	updates int
}

// run is the state of one Ingest call.
type run struct {
	batch    *storage.WriteBatch
	outcomes []outcome
	stats    core.IngestStats
}

// Ingest stores raws and reports what happened to each. Per-posting failures are
// counted in Errors and do not stop the run. The returned error is non-nil only
// when ctx ends; stats are still returned in that case.
func (p *Pipeline) Ingest(ctx context.Context, raws []core.RawPosting) (*core.IngestStats, error) {
	r := &run{batch: storage.NewWriteBatch()}
	r.stats.Fetched = len(raws)

	p.logger.Info("ingesting postings", "count", len(raws), "batchSize", p.batchSize)
	for i := range raws {
		if err := ctx.Err(); err != nil {
			p.flush(ctx, r)
			return &r.stats, err
		}

		p.ingestOne(ctx, r, &raws[i])

		if r.batch.Len() >= p.batchSize {
			p.flush(ctx, r)
		}
	}
	p.flush(ctx, r)

	p.logger.Info("ingestion complete",
		"fetched", r.stats.Fetched,
		"new", r.stats.New,
		"updated", r.stats.Updated,
		"skipped", r.stats.Skipped,
		"chunks", r.stats.ChunksCreated,
		"errors", r.stats.Errors)
	return &r.stats, ctx.Err()
}

func (p *Pipeline) ingestOne(ctx context.Context, r *run, raw *core.RawPosting) {
	if err := core.ValidateRawPosting(raw); err != nil {
		p.logger.Warn("rejecting invalid posting", "title", raw.Title, "source", raw.SourceName, "err", err)
		r.stats.Errors++
		return
	}

	fp := raw.Fingerprint()
	logger := p.logger.With("fingerprint", fp, "title", raw.Title)

	pending, staged := r.batch.Find(fp)
	var existing *core.Posting
	if staged {
		existing = pending.Posting
	} else {
		found, err := p.repo.GetByFingerprint(ctx, fp)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			logger.Error("fingerprint lookup failed", "err", err)
			r.stats.Errors++
			return
		default:
			existing = found
		}
	}

	var posting *core.Posting
	switch {
	case existing == nil:
		posting = newPosting(raw, p.now())
	case isRicher(existing, raw):
		posting = merge(existing, raw, p.now())
	default:
		logger.Debug("skipping posting, nothing new")
		r.stats.Skipped++
		return
	}

	chunks, err := p.prepareChunks(ctx, posting)
	if err != nil {
		logger.Error("failed to prepare chunks", "err", err)
		r.stats.Errors++
		return
	}
	if len(chunks) == 0 {
		logger.Warn("posting produced no chunks; it will not be found by similarity search")
	}

	if staged {
		idx := r.indexOf(fp)
		pending.Posting = posting
		pending.Chunks = chunks
		r.outcomes[idx].updates++
		logger.Debug("restaged pending posting", "chunks", len(chunks))
		return
	}

	r.batch.Add(storage.PostingWrite{
		Posting:       posting,
		Chunks:        chunks,
		ReplaceChunks: existing != nil,
	})
	if existing == nil {
		r.outcomes = append(r.outcomes, outcome{created: true})
	} else {
		r.outcomes = append(r.outcomes, outcome{updates: 1})
	}
	logger.Debug("staged posting", "update", existing != nil, "chunks", len(chunks))
}

func (r *run) indexOf(fp core.Fingerprint) int {
	for i, w := range r.batch.Writes() {
		if w.Posting.Fingerprint == fp {
			return i
		}
	}
	return -1
}

func (r *run) tally(w storage.PostingWrite, o outcome) {
	if o.created {
		r.stats.New++
	}
	r.stats.Updated += o.updates
	r.stats.ChunksCreated += len(w.Chunks)
}

// flush commits the staged batch. When the batch transaction fails, each staged
// posting is retried in its own transaction so one bad posting cannot sink the
// rest.
func (p *Pipeline) flush(ctx context.Context, r *run) {
	if r.batch.Len() == 0 {
		return
	}
	defer func() {
		r.batch.Reset()
		r.outcomes = r.outcomes[:0]
	}()

	err := p.repo.Commit(ctx, r.batch)
	if err == nil {
		for i, w := range r.batch.Writes() {
			r.tally(w, r.outcomes[i])
		}
		p.logger.Debug("committed batch", "postings", r.batch.Len())
		return
	}

	p.logger.Warn("batch commit failed, retrying postings individually", "postings", r.batch.Len(), "err", err)
	for i, w := range r.batch.Writes() {
		single := storage.NewWriteBatch()
		single.Add(w)
		if err := p.repo.Commit(ctx, single); err != nil {
			p.logger.Error("failed to commit posting", "title", w.Posting.Title, "fingerprint", w.Posting.Fingerprint, "err", err)
			r.stats.Errors++
			continue
		}
		r.tally(w, r.outcomes[i])
	}
}
