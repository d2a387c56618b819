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

package skillscope

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/ai/provider"
	"github.com/poiesic/skillscope/analysis"
	"github.com/poiesic/skillscope/cache"
	"github.com/poiesic/skillscope/config"
	"github.com/poiesic/skillscope/connector"
	"github.com/poiesic/skillscope/connector/adzuna"
	"github.com/poiesic/skillscope/connector/remoteok"
	"github.com/poiesic/skillscope/connector/usajobs"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/ingestion"
	"github.com/poiesic/skillscope/reembed"
	"github.com/poiesic/skillscope/search"
	"github.com/poiesic/skillscope/storage"
	"github.com/poiesic/skillscope/storage/badger"
	"github.com/poiesic/skillscope/storage/postgres"
)

// Database wires the store, the AI provider and the services built on them.
type Database struct {
	config    *config.Config
	store     storage.Store
	provider  ai.AIProvider
	retriever *search.Retriever
	pipeline  *ingestion.Pipeline
	cache     *cache.Cache
	analyzer  *analysis.Analyzer
	fetchers  []connector.Fetcher
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger   *slog.Logger
	store    storage.Store
	provider ai.AIProvider
	fetchers []connector.Fetcher
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// WithStore uses store instead of opening the configured one.
// The Database takes ownership and closes it.
func WithStore(store storage.Store) DatabaseOption {
	return func(o *databaseOptions) {
		o.store = store
	}
}

// WithProvider uses p instead of building the configured provider.
// The Database takes ownership and closes it.
func WithProvider(p ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = p
	}
}

// WithFetchers replaces the connectors derived from configuration.
func WithFetchers(fetchers ...connector.Fetcher) DatabaseOption {
	return func(o *databaseOptions) {
		o.fetchers = fetchers
	}
}

// Open builds a Database from cfg. cfg is validated first.
func Open(ctx context.Context, cfg *config.Config, opts ...DatabaseOption) (*Database, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	db := &Database{config: cfg, logger: logger}

	db.store = options.store
	if db.store == nil {
		store, err := openStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		db.store = store
	}

	db.provider = options.provider
	if db.provider == nil {
		p, err := provider.New(ctx, cfg.AI())
		if err != nil {
			db.store.Close()
			return nil, err
		}
		db.provider = p
	}

	if err := db.build(options); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("database opened", "driver", cfg.Store.Driver, "provider", cfg.Embedding.Provider,
		"synthesizer", db.provider.Synthesizer() != nil, "fetchers", len(db.fetchers))
	return db, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.Store.DSN,
			postgres.WithDimension(cfg.Embedding.Dimension),
			postgres.WithLogger(logger))
	default:
		return badger.Open(cfg.Store.Path,
			badger.WithDimension(cfg.Embedding.Dimension),
			badger.WithLogger(logger))
	}
}

func (db *Database) build(options *databaseOptions) error {
	cfg := db.config
	embedder := db.provider.Embedder()
	if embedder.Dimension() != cfg.Embedding.Dimension {
		return fmt.Errorf("%w: provider produces %d, store expects %d",
			core.ErrDimensionMismatch, embedder.Dimension(), cfg.Embedding.Dimension)
	}

	var err error
	db.retriever, err = search.NewRetriever(db.store, embedder,
		search.WithMinScore(cfg.Retrieval.MinScore),
		search.WithLogger(db.logger))
	if err != nil {
		return err
	}

	db.pipeline, err = ingestion.NewPipeline(db.store, embedder,
		ingestion.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		ingestion.WithCommitBatchSize(cfg.Ingest.CommitBatchSize),
		ingestion.WithLogger(db.logger))
	if err != nil {
		return err
	}

	db.cache, err = cache.New(db.store, cache.WithLogger(db.logger))
	if err != nil {
		return err
	}

	db.analyzer, err = analysis.NewAnalyzer(db.retriever, db.provider.Synthesizer(), db.cache,
		analysis.WithTopK(cfg.Retrieval.TopK),
		analysis.WithSynthesisTimeout(cfg.Synthesizer.Timeout),
		analysis.WithLogger(db.logger))
	if err != nil {
		return err
	}

	db.fetchers = options.fetchers
	if db.fetchers == nil {
		db.fetchers, err = Fetchers(cfg)
		if err != nil {
			return err
		}
	}
	return nil
}

// Fetchers returns the connectors enabled by cfg: RemoteOK unless disabled,
// Adzuna and USAJOBS when their credentials are set.
func Fetchers(cfg *config.Config) ([]connector.Fetcher, error) {
	var fetchers []connector.Fetcher
	if cfg.Connectors.RemoteOK {
		fetchers = append(fetchers, remoteok.New(""))
	}
	if cfg.Adzuna.Enabled() {
		f, err := adzuna.New(adzuna.Config{
			AppID:   cfg.Adzuna.AppID,
			AppKey:  cfg.Adzuna.AppKey,
			Country: cfg.Adzuna.Country,
		})
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, f)
	}
	if cfg.USAJobs.Enabled() {
		f, err := usajobs.New(usajobs.Config{Email: cfg.USAJobs.Email, APIKey: cfg.USAJobs.APIKey})
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, f)
	}
	return fetchers, nil
}

// Close releases the analyzer, the provider and the store.
func (db *Database) Close() error {
	if db.analyzer != nil {
		db.analyzer.Close()
	}
	var errs []error
	if db.provider != nil {
		if err := db.provider.Close(); err != nil {
			db.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if db.store != nil {
		if err := db.store.Close(); err != nil {
			db.logger.Error("error closing store", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config returns the validated configuration.
func (db *Database) Config() *config.Config { return db.config }

// Store returns the underlying store.
func (db *Database) Store() storage.Store { return db.store }

// Provider returns the AI provider.
func (db *Database) Provider() ai.AIProvider { return db.provider }

// Retriever returns the similarity retriever.
func (db *Database) Retriever() *search.Retriever { return db.retriever }

// Pipeline returns the ingestion pipeline.
func (db *Database) Pipeline() *ingestion.Pipeline { return db.pipeline }

// Cache returns the analysis cache.
func (db *Database) Cache() *cache.Cache { return db.cache }

// Analyzer returns the analyzer.
func (db *Database) Analyzer() *analysis.Analyzer { return db.analyzer }

// IngestLive fetches postings for terms from every enabled connector and
// ingests them. Empty terms use the configured terms; maxPerSource <= 0 uses
// the configured cap.
func (db *Database) IngestLive(ctx context.Context, terms []string, location string, maxPerSource int) (*core.IngestStats, error) {
	if len(db.fetchers) == 0 {
		return nil, connector.ErrNoFetchers
	}
	if len(terms) == 0 {
		terms = db.config.Connectors.Terms
	}
	if maxPerSource <= 0 {
		maxPerSource = db.config.Connectors.MaxPerSource
	}

	opts := []connector.ManagerOption{
		connector.WithDefaultLocation(db.config.Connectors.Location),
		connector.WithFetchTimeout(db.config.Connectors.FetchTimeout),
		connector.WithLogger(db.logger),
	}
	if db.config.Connectors.PoolSize > 0 {
		opts = append(opts, connector.WithPoolSize(db.config.Connectors.PoolSize))
	}
	manager, err := connector.NewManager(db.fetchers, opts...)
	if err != nil {
		return nil, err
	}
	defer manager.Release()

	service, err := ingestion.NewService(manager, db.pipeline, db.logger)
	if err != nil {
		return nil, err
	}
	return service.Ingest(ctx, terms, location, maxPerSource)
}

// IngestPostings runs already-fetched postings through the pipeline.
func (db *Database) IngestPostings(ctx context.Context, raws []core.RawPosting) (*core.IngestStats, error) {
	return db.pipeline.Ingest(ctx, raws)
}

// Sweep removes postings ingested more than olderThan ago.
func (db *Database) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("%w: sweep age must be positive", config.ErrInvalidConfig)
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	n, err := db.store.DeletePostingsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	db.logger.Info("swept postings", "cutoff", cutoff, "removed", n)
	return n, nil
}

// NewReembedder returns a reembedder over the store using the current embedder.
func (db *Database) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.store, db.provider.Embedder(), cfg, progress)
}
