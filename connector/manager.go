package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/skillscope/core"
)

const defaultFetchTimeout = time.Minute

// Manager fans searches out to every configured Fetcher.
type Manager struct {
	fetchers        []Fetcher
	pool            *ants.Pool
	poolSize        int
	defaultLocation string
	fetchTimeout    time.Duration
	logger          *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager) error

// WithPoolSize sets how many fetches run concurrently.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) ManagerOption {
	return func(m *Manager) error {
		m.poolSize = max(size, 1)
		return nil
	}
}

// WithDefaultLocation sets the location used when FetchAll is given none.
func WithDefaultLocation(location string) ManagerOption {
	return func(m *Manager) error {
		m.defaultLocation = location
		return nil
	}
}

// WithFetchTimeout bounds each individual Fetch call.
func WithFetchTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) error {
		if d <= 0 {
			return fmt.Errorf("fetch timeout must be positive, got %s", d)
		}
		m.fetchTimeout = d
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger.With("component", "connector-manager")
		return nil
	}
}

// NewManager creates a manager over fetchers. Call Release when done.
func NewManager(fetchers []Fetcher, opts ...ManagerOption) (*Manager, error) {
	if len(fetchers) == 0 {
		return nil, ErrNoFetchers
	}

	m := &Manager{
		fetchers:     fetchers,
		poolSize:     max(runtime.NumCPU(), 1),
		fetchTimeout: defaultFetchTimeout,
		logger:       slog.Default().With("component", "connector-manager"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(m.poolSize)
	if err != nil {
		return nil, err
	}
	m.pool = pool

	names := make([]string, len(fetchers))
	for i, f := range fetchers {
		names[i] = f.Name()
	}
	m.logger.Info("initialized job fetchers", "fetchers", names)
	return m, nil
}

// Release stops the worker pool. The manager must not be used afterwards.
func (m *Manager) Release() {
	if m.pool != nil {
		m.pool.Release()
	}
}

type fetchResult struct {
	source string
	term   string
	raws   []core.RawPosting
	err    error
}

// FetchAll queries every fetcher for every term concurrently. Results are merged
// in (term, fetcher) order, deduplicated by fingerprint, and each fetch may
// contribute at most maxPerSource new postings (maxPerSource <= 0 means no cap).
// Failed sources are skipped; their errors are joined into the returned error
// alongside whatever the other sources produced.
func (m *Manager) FetchAll(ctx context.Context, terms []string, location string, maxPerSource int) ([]core.RawPosting, error) {
	if location == "" {
		location = m.defaultLocation
	}

	results := make([]fetchResult, 0, len(terms)*len(m.fetchers))
	for _, term := range terms {
		for _, f := range m.fetchers {
			results = append(results, fetchResult{source: f.Name(), term: term})
		}
	}

	var wg sync.WaitGroup
	for i := range results {
		f := m.fetchers[i%len(m.fetchers)]
		r := &results[i]
		wg.Add(1)
		submitErr := m.pool.Submit(func() {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
			defer cancel()
			r.raws, r.err = f.Fetch(fctx, r.term, location)
		})
		if submitErr != nil {
			wg.Done()
			r.err = submitErr
		}
	}
	wg.Wait()

	var (
		all  []core.RawPosting
		seen = make(map[core.Fingerprint]bool)
		errs []error
	)
	for _, r := range results {
		if r.err != nil {
			m.logger.Error("error fetching from source", "source", r.source, "term", r.term, "err", r.err)
			errs = append(errs, fmt.Errorf("%s %q: %w", r.source, r.term, r.err))
			continue
		}
		added := 0
		for _, raw := range r.raws {
			if maxPerSource > 0 && added >= maxPerSource {
				break
			}
			fp := raw.Fingerprint()
			if seen[fp] {
				continue
			}
			seen[fp] = true
			all = append(all, raw)
			added++
		}
		m.logger.Info("added postings", "source", r.source, "term", r.term, "added", added)
	}

	m.logger.Info("total unique postings fetched", "count", len(all))
	return all, errors.Join(errs...)
}
