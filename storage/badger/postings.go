package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

// GetPosting retrieves a single posting by ID.
func (s *Store) GetPosting(ctx context.Context, id core.ID) (*core.Posting, error) {
	var result *core.Posting
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readPosting(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetPostings retrieves multiple postings by their IDs.
func (s *Store) GetPostings(ctx context.Context, ids ...core.ID) ([]*core.Posting, error) {
	var result []*core.Posting
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			posting, err := readPosting(tx, id)
			if err != nil {
				return err
			}
			if posting != nil {
				result = append(result, posting)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetByFingerprint looks a posting up through the fingerprint index.
func (s *Store) GetByFingerprint(ctx context.Context, fp core.Fingerprint) (*core.Posting, error) {
	var result *core.Posting
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		id, err := readValue(tx, makeFingerprintKey(fp), storage.UnmarshalID)
		if err != nil {
			return err
		}
		if id == 0 {
			return storage.ErrNotFound
		}
		result, err = readPosting(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: fingerprint %s points at missing posting %d", storage.ErrNotFound, fp, id)
		}
		return nil
	}, false)
	return result, err
}

// Commit writes every staged posting and its chunks in a single transaction.
// IDs assigned during a failed commit are cleared again so the batch can be retried.
func (s *Store) Commit(ctx context.Context, batch *storage.WriteBatch) (err error) {
	if batch == nil || batch.Len() == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var assignedPostings []*core.Posting
	var assignedChunks []*core.Chunk
	defer func() {
		if err == nil {
			return
		}
		for _, p := range assignedPostings {
			p.Id = 0
		}
		for _, c := range assignedChunks {
			c.Id = 0
			c.PostingId = 0
		}
	}()

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, w := range batch.Writes() {
			p := w.Posting
			if p == nil {
				return fmt.Errorf("%w: nil posting", storage.ErrInvalidBatch)
			}
			for _, c := range w.Chunks {
				if err := core.ValidateChunk(c, s.dimension); err != nil {
					return fmt.Errorf("posting %q: %w", p.Title, err)
				}
			}

			if p.IngestedAt.IsZero() {
				p.IngestedAt = s.now()
			}
			if p.UpdatedAt.IsZero() {
				p.UpdatedAt = p.IngestedAt
			}

			if p.Id == 0 {
				existing, err := readValue(tx, makeFingerprintKey(p.Fingerprint), storage.UnmarshalID)
				if err != nil {
					return err
				}
				if existing != 0 {
					return fmt.Errorf("%w: fingerprint %s", storage.ErrDuplicateKey, p.Fingerprint)
				}
				id, err := nextID(s.postingSeq)
				if err != nil {
					return err
				}
				p.Id = core.ID(id)
				assignedPostings = append(assignedPostings, p)
			} else {
				old, err := readPosting(tx, p.Id)
				if err != nil {
					return err
				}
				if old == nil {
					return fmt.Errorf("%w: posting %d", storage.ErrNotFound, p.Id)
				}
				if err := tx.Delete(makeIngestKey(old.IngestedAt, old.Id)); err != nil {
					return err
				}
				if old.Fingerprint != p.Fingerprint {
					if err := tx.Delete(makeFingerprintKey(old.Fingerprint)); err != nil {
						return err
					}
				}
				if w.ReplaceChunks {
					if err := deleteChunks(tx, p.Id); err != nil {
						return err
					}
				}
			}

			if err := tx.Set(makePostingKey(p.Id), storage.MarshalPosting(p)); err != nil {
				return err
			}
			if err := tx.Set(makeFingerprintKey(p.Fingerprint), storage.MarshalID(p.Id)); err != nil {
				return err
			}
			if err := tx.Set(makeIngestKey(p.IngestedAt, p.Id), storage.MarshalID(p.Id)); err != nil {
				return err
			}

			for _, c := range w.Chunks {
				if c.Id == 0 {
					id, err := nextID(s.chunkSeq)
					if err != nil {
						return err
					}
					c.Id = core.ID(id)
					assignedChunks = append(assignedChunks, c)
				}
				c.PostingId = p.Id
				if c.CreatedAt.IsZero() {
					c.CreatedAt = s.now()
				}
				if err := writeChunk(tx, c); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// DeletePostings removes postings, their indices and their chunks.
func (s *Store) DeletePostings(ctx context.Context, ids ...core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			posting, err := readPosting(tx, id)
			if err != nil {
				return err
			}
			if posting == nil {
				return fmt.Errorf("%w: posting %d", storage.ErrNotFound, id)
			}
			if err := deletePosting(tx, posting); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeletePostingsBefore removes postings whose ingest time is before cutoff.
func (s *Store) DeletePostingsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var ids []core.ID
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		end := makePartialIngestKey(cutoff)
		return scanPrefix(tx, []byte(postingIngestPrefix), true, func(item *badger.Item) error {
			if bytes.Compare(item.Key(), end) >= 0 {
				return errStopScan
			}
			ids = append(ids, idFromKeySuffix(item.Key()))
			return nil
		})
	}, false)
	if err != nil && !errors.Is(err, errStopScan) {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.DeletePostings(ctx, ids...); err != nil {
		return 0, err
	}
	s.logger.Info("deleted stale postings", "count", len(ids), "cutoff", cutoff)
	return len(ids), nil
}

// ForEachPosting calls fn for every posting in ID order. Postings are read one
// at a time so fn may write to the store.
func (s *Store) ForEachPosting(ctx context.Context, fn func(*core.Posting) error) error {
	var ids []core.ID
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(postingPrefix), true, func(item *badger.Item) error {
			ids = append(ids, idFromKeySuffix(item.Key()))
			return nil
		})
	}, false)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		posting, err := s.GetPosting(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(posting); err != nil {
			return err
		}
	}
	return nil
}

// CountPostings returns the number of stored postings.
func (s *Store) CountPostings(ctx context.Context) (int, error) {
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(postingPrefix), true, func(*badger.Item) error {
			count++
			return nil
		})
	}, false)
	return count, err
}

// Helper functions

var errStopScan = errors.New("stop scan")

// idFromKeySuffix reads the trailing BigEndian ID of a composite key.
func idFromKeySuffix(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

func readPosting(tx *badger.Txn, id core.ID) (*core.Posting, error) {
	return readValue(tx, makePostingKey(id), storage.UnmarshalPosting)
}

func deletePosting(tx *badger.Txn, posting *core.Posting) error {
	if err := deleteChunks(tx, posting.Id); err != nil {
		return err
	}
	for _, key := range [][]byte{
		makeIngestKey(posting.IngestedAt, posting.Id),
		makeFingerprintKey(posting.Fingerprint),
		makePostingKey(posting.Id),
	} {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
