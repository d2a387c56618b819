package badger

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

// GetChunks returns the chunks of a posting ordered by index.
func (s *Store) GetChunks(ctx context.Context, postingID core.ID) ([]*core.Chunk, error) {
	var result []*core.Chunk
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readPostingChunks(tx, postingID)
		return err
	}, false)
	return result, err
}

// GetChunksByIds retrieves chunks by ID, skipping missing ones.
func (s *Store) GetChunksByIds(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	var result []*core.Chunk
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := readValue(tx, makeChunkKey(id), storage.UnmarshalChunk)
			if err != nil {
				return err
			}
			if chunk != nil {
				result = append(result, chunk)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindSimilar scores every chunk that passes the filters and returns the best
// q.TopK. Ties keep (posting id, chunk index) order.
func (s *Store) FindSimilar(ctx context.Context, q storage.SimilarityQuery) ([]*core.Evidence, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var results []*core.Evidence
	var order []chunkOrder
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(chunkPrefix), false, func(item *badger.Item) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				if len(chunk.Vector) == 0 || !q.Filters.Match(chunk.Metadata) {
					return nil
				}
				score := core.CosineSimilarity(q.Vector, chunk.Vector)
				if !q.Accept(score) {
					return nil
				}
				results = append(results, &core.Evidence{
					ChunkId:   chunk.Id,
					PostingId: chunk.PostingId,
					Text:      chunk.Text,
					Score:     score,
					Metadata:  chunk.Metadata,
				})
				order = append(order, chunkOrder{postingID: chunk.PostingId, index: chunk.Index})
				return nil
			})
		})
	}, false)
	if err != nil {
		return nil, err
	}

	positions := make([]int, len(results))
	for i := range positions {
		positions[i] = i
	}
	slices.SortStableFunc(positions, func(a, b int) int {
		if c := cmp.Compare(results[b].Score, results[a].Score); c != 0 {
			return c
		}
		if c := cmp.Compare(order[a].postingID, order[b].postingID); c != 0 {
			return c
		}
		return cmp.Compare(order[a].index, order[b].index)
	})

	limit := min(q.TopK, len(positions))
	ranked := make([]*core.Evidence, limit)
	for i := range limit {
		ranked[i] = results[positions[i]]
	}
	return ranked, nil
}

// ReplaceChunkVectors overwrites the vectors of every chunk of a posting in one transaction.
func (s *Store) ReplaceChunkVectors(ctx context.Context, postingID core.ID, vectors map[core.ID][]float32) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		chunks, err := readPostingChunks(tx, postingID)
		if err != nil {
			return err
		}
		for _, chunk := range chunks {
			vector, ok := vectors[chunk.Id]
			if !ok {
				return fmt.Errorf("%w: no vector for chunk %d of posting %d", storage.ErrInvalidBatch, chunk.Id, postingID)
			}
			chunk.Vector = vector
			if err := core.ValidateChunk(chunk, s.dimension); err != nil {
				return fmt.Errorf("posting %d: %w", postingID, err)
			}
			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Helper functions

type chunkOrder struct {
	postingID core.ID
	index     int
}

func writeChunk(tx *badger.Txn, chunk *core.Chunk) error {
	if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
		return err
	}
	return tx.Set(makeChunkPostingKey(chunk.PostingId, chunk.Id), storage.MarshalID(chunk.Id))
}

func chunkIDs(tx *badger.Txn, postingID core.ID) ([]core.ID, error) {
	var ids []core.ID
	err := scanPrefix(tx, makePartialChunkPostingKey(postingID), true, func(item *badger.Item) error {
		ids = append(ids, idFromKeySuffix(item.Key()))
		return nil
	})
	return ids, err
}

func readPostingChunks(tx *badger.Txn, postingID core.ID) ([]*core.Chunk, error) {
	ids, err := chunkIDs(tx, postingID)
	if err != nil {
		return nil, err
	}
	chunks := make([]*core.Chunk, 0, len(ids))
	for _, id := range ids {
		chunk, err := readValue(tx, makeChunkKey(id), storage.UnmarshalChunk)
		if err != nil {
			return nil, err
		}
		if chunk != nil {
			chunks = append(chunks, chunk)
		}
	}
	slices.SortFunc(chunks, func(a, b *core.Chunk) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return chunks, nil
}

// deleteChunks removes every chunk of a posting with its index entries.
func deleteChunks(tx *badger.Txn, postingID core.ID) error {
	ids, err := chunkIDs(tx, postingID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := tx.Delete(makeChunkKey(id)); err != nil {
			return err
		}
		if err := tx.Delete(makeChunkPostingKey(postingID, id)); err != nil {
			return err
		}
	}
	return nil
}
