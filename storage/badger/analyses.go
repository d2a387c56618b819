package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/storage"
)

// AppendAnalysis stores a new analysis row and its lookup indices.
func (s *Store) AppendAnalysis(ctx context.Context, analysis *core.CachedAnalysis) error {
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = s.now()
	}
	if analysis.Id == 0 {
		id, err := nextID(s.analysisSeq)
		if err != nil {
			return err
		}
		analysis.Id = core.ID(id)
	}

	value, err := storage.MarshalAnalysis(analysis)
	if err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeAnalysisKey(analysis.Id), value); err != nil {
			return err
		}
		idValue := storage.MarshalID(analysis.Id)
		if err := tx.Set(makeAnalysisLookupKey(analysis.Key, analysis.CreatedAt, analysis.Id), idValue); err != nil {
			return err
		}
		if err := tx.Set(makeAnalysisDateKey(analysis.CreatedAt, analysis.Id), idValue); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LatestAnalysis walks the lookup index for key backwards from the newest row.
func (s *Store) LatestAnalysis(ctx context.Context, key core.AnalysisKey) (*core.CachedAnalysis, error) {
	var result *core.CachedAnalysis
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialAnalysisLookupKey(key)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration seeks to the greatest key <= the seek key.
		seek := append(bytes.Clone(prefix), bytes.Repeat([]byte{0xff}, 16)...)
		for iter.Seek(seek); iter.Valid(); iter.Next() {
			analysis, err := readValue(tx, makeAnalysisKey(idFromKeySuffix(iter.Item().Key())), storage.UnmarshalAnalysis)
			if err != nil {
				return err
			}
			// Digest collisions are resolved by comparing the full key.
			if analysis != nil && analysis.Key == key {
				result = analysis
				return nil
			}
		}
		return storage.ErrNotFound
	}, false)
	return result, err
}

// AnalysesSince returns rows created at or after since, oldest first.
func (s *Store) AnalysesSince(ctx context.Context, since time.Time) ([]*core.CachedAnalysis, error) {
	var results []*core.CachedAnalysis
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(analysisDatePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makePartialAnalysisDateKey(since)); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			analysis, err := readValue(tx, makeAnalysisKey(idFromKeySuffix(iter.Item().Key())), storage.UnmarshalAnalysis)
			if err != nil {
				return err
			}
			if analysis != nil {
				results = append(results, analysis)
			}
		}
		return nil
	}, false)
	return results, err
}
