package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

// BatchProcessor re-embeds the chunks of a batch of postings.
type BatchProcessor struct {
	repo           storage.PostingRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.PostingRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     max(maxRetries, 1),
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds every chunk of postings in one call and then rewrites each
// posting's vectors in its own transaction. It returns the number of chunks
// rewritten. Vectors are normalized to unit length.
func (bp *BatchProcessor) Process(ctx context.Context, postings []*core.Posting) (int, error) {
	if len(postings) == 0 {
		return 0, nil
	}

	type span struct {
		postingID core.ID
		chunks    []*core.Chunk
		offset    int
	}
	var (
		spans []span
		texts []string
	)
	for _, p := range postings {
		chunks, err := bp.repo.GetChunks(ctx, p.Id)
		if err != nil {
			return 0, fmt.Errorf("loading chunks of posting %d: %w", p.Id, err)
		}
		if len(chunks) == 0 {
			continue
		}
		spans = append(spans, span{postingID: p.Id, chunks: chunks, offset: len(texts)})
		for _, c := range chunks {
			texts = append(texts, c.Text)
		}
	}
	if len(texts) == 0 {
		return 0, nil
	}

	var embeddings [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}
	if len(embeddings) != len(texts) {
		return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(embeddings))
	}

	dim := bp.embedder.Dimension()
	written := 0
	for _, s := range spans {
		vectors := make(map[core.ID][]float32, len(s.chunks))
		for i, c := range s.chunks {
			v := embeddings[s.offset+i]
			if dim > 0 && len(v) != dim {
				return written, fmt.Errorf("%w: chunk %d has %d, want %d", core.ErrDimensionMismatch, c.Id, len(v), dim)
			}
			vectors[c.Id] = core.NormalizeVector(v)
		}
		if err := bp.repo.ReplaceChunkVectors(ctx, s.postingID, vectors); err != nil {
			return written, fmt.Errorf("replacing vectors of posting %d: %w", s.postingID, err)
		}
		written += len(s.chunks)
	}
	return written, nil
}
