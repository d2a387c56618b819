package badger

import (
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/skillscope/storage"
)

// Store implements storage.Store on BadgerDB. Similarity search is a brute-force
// scan over every chunk, which is adequate for corpora of tens of thousands of
// chunks.
type Store struct {
	backend     *Backend
	postingSeq  *badger.Sequence
	chunkSeq    *badger.Sequence
	analysisSeq *badger.Sequence
	dimension   int
	now         func() time.Time
	logger      *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithDimension makes Commit reject chunks whose vector length differs from dim.
func WithDimension(dim int) StoreOption {
	return func(s *Store) {
		s.dimension = dim
	}
}

// WithClock overrides the time source used for default timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open opens (or creates) a store in directory path.
func Open(path string, opts ...StoreOption) (*Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	s, err := NewStore(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return s, nil
}

// NewStore creates a Store over an open backend. The store owns the backend.
func NewStore(backend *Backend, opts ...StoreOption) (*Store, error) {
	s := &Store{
		backend: backend,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  backend.logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.postingSeq, err = backend.GetSequence(postingIDSeq); err != nil {
		return nil, err
	}
	if s.chunkSeq, err = backend.GetSequence(chunkIDSeq); err != nil {
		s.postingSeq.Release()
		return nil, err
	}
	if s.analysisSeq, err = backend.GetSequence(analysisIDSeq); err != nil {
		s.postingSeq.Release()
		s.chunkSeq.Release()
		return nil, err
	}
	return s, nil
}

// Close releases the ID sequences and closes the database.
func (s *Store) Close() error {
	if s.backend.IsClosed() {
		return nil
	}
	return errors.Join(
		s.postingSeq.Release(),
		s.chunkSeq.Release(),
		s.analysisSeq.Release(),
		s.backend.Close(),
	)
}
