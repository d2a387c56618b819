// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of postings whose chunks are embedded together
	BatchSize int

	// ReportInterval is how often to report progress (number of postings)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 50,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Stats summarizes a run.
type Stats struct {
	Postings int
	Chunks   int
	Elapsed  time.Duration
}

// Reembedder recomputes the vectors of every stored chunk.
type Reembedder struct {
	repo      storage.PostingRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *PostingIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr); nil discards it
func NewReembedder(repo storage.PostingRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewPostingIterator(repo, config.BatchSize),
		logger:    slog.Default().With("component", "reembed"),
	}, nil
}

// Run re-embeds every posting's chunks. A failed batch stops the run; postings
// already rewritten keep their new vectors.
func (r *Reembedder) Run(ctx context.Context) (*Stats, error) {
	total, err := r.repo.CountPostings(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting postings: %w", err)
	}
	stats := &Stats{}
	if total == 0 {
		fmt.Fprintf(r.progress, "No postings found in database (0 postings)\n")
		return stats, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d postings (batch size: %d)\n",
		total, r.iterator.batchSize)
	r.logger.Info("starting reembed", "postings", total, "batchSize", r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(postings []*core.Posting) error {
		n, err := r.processor.Process(ctx, postings)
		stats.Chunks += n
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		stats.Postings += len(postings)
		tracker.Update(stats.Postings)
		return nil
	})
	stats.Elapsed = tracker.Elapsed()
	if err != nil {
		r.logger.Error("reembed stopped", "postings", stats.Postings, "chunks", stats.Chunks, "err", err)
		return stats, err
	}

	tracker.Finish()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d postings (%d chunks) in %v\n",
		stats.Postings, stats.Chunks, stats.Elapsed.Round(time.Second))
	r.logger.Info("reembed complete", "postings", stats.Postings, "chunks", stats.Chunks)
	return stats, nil
}
