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

	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

const (
	// DefaultBatchSize is the default number of postings handed to fn at once
	DefaultBatchSize = 50
)

// PostingIterator walks every stored posting in batches.
type PostingIterator struct {
	repo      storage.PostingRepository
	batchSize int
}

// NewPostingIterator creates a new posting iterator.
// batchSize <= 0 uses DefaultBatchSize.
func NewPostingIterator(repo storage.PostingRepository, batchSize int) *PostingIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &PostingIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with consecutive batches of postings in ID order. The last
// batch may be short. Iteration stops at the first error from fn and when ctx
// is cancelled between batches.
func (it *PostingIterator) ForEach(ctx context.Context, fn func([]*core.Posting) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := make([]*core.Posting, 0, it.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = make([]*core.Posting, 0, it.batchSize)
		return ctx.Err()
	}

	err := it.repo.ForEachPosting(ctx, func(p *core.Posting) error {
		batch = append(batch, p)
		if len(batch) < it.batchSize {
			return nil
		}
		return flush()
	})
	if err != nil {
		return err
	}
	return flush()
}
