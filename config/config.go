package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/skillscope/ai"
	"github.com/poiesic/skillscope/chunker"
)

// ErrInvalidConfig is returned when a loaded setting is missing or inconsistent.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultTerms are searched when no terms are configured.
var DefaultTerms = []string{"software engineer", "data scientist", "machine learning engineer"}

// Store drivers.
const (
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

// Config is the complete application configuration.
type Config struct {
	Store       StoreConfig       `koanf:"store"`
	Embedding   EmbeddingConfig   `koanf:"embedding"`
	Synthesizer SynthesizerConfig `koanf:"synthesizer"`
	Ingest      IngestConfig      `koanf:"ingest"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Cache       CacheConfig       `koanf:"cache"`
	Connectors  ConnectorConfig   `koanf:"connectors"`
	Adzuna      AdzunaConfig      `koanf:"adzuna"`
	USAJobs     USAJobsConfig     `koanf:"usajobs"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `koanf:"driver"` // badger or postgres
	Path   string `koanf:"path"`   // badger directory
	DSN    string `koanf:"dsn"`    // postgres connection string
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider          string        `koanf:"provider"`
	Host              string        `koanf:"host"`
	Model             string        `koanf:"model"`
	APIKey            string        `koanf:"api_key"`
	Dimension         int           `koanf:"dimension"`
	BatchSize         int           `koanf:"batch_size"`
	MaxAttempts       int           `koanf:"max_attempts"`
	RetryDelay        time.Duration `koanf:"retry_delay"`
	CallTimeout       time.Duration `koanf:"call_timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	CacheDir          string        `koanf:"cache_dir"`
}

// SynthesizerConfig configures the chat model that writes analyses.
// An empty Model runs without a synthesizer.
type SynthesizerConfig struct {
	Host    string        `koanf:"host"`
	Model   string        `koanf:"model"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// IngestConfig tunes chunking and commits.
type IngestConfig struct {
	ChunkSize       int `koanf:"chunk_size"`
	ChunkOverlap    int `koanf:"chunk_overlap"`
	CommitBatchSize int `koanf:"commit_batch_size"`
}

// RetrievalConfig tunes similarity search.
type RetrievalConfig struct {
	TopK     int     `koanf:"top_k"`
	MinScore float32 `koanf:"min_score"`
}

// CacheConfig tunes the analysis cache.
type CacheConfig struct {
	MaxAge time.Duration `koanf:"max_age"`
}

// ConnectorConfig tunes live fetching.
type ConnectorConfig struct {
	Terms        []string      `koanf:"terms"`
	Location     string        `koanf:"location"`
	MaxPerSource int           `koanf:"max_per_source"`
	PoolSize     int           `koanf:"pool_size"`
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
	RemoteOK     bool          `koanf:"remoteok"`
}

// AdzunaConfig holds Adzuna credentials. The connector is enabled when both are set.
type AdzunaConfig struct {
	AppID   string `koanf:"app_id"`
	AppKey  string `koanf:"app_key"`
	Country string `koanf:"country"`
}

// Enabled reports whether credentials are present.
func (c AdzunaConfig) Enabled() bool { return c.AppID != "" && c.AppKey != "" }

// USAJobsConfig holds USAJOBS credentials. The connector is enabled when both are set.
type USAJobsConfig struct {
	Email  string `koanf:"email"`
	APIKey string `koanf:"api_key"`
}

// Enabled reports whether credentials are present.
func (c USAJobsConfig) Enabled() bool { return c.Email != "" && c.APIKey != "" }

// Default returns the built-in configuration.
func Default() *Config {
	a := ai.DefaultConfig()
	return &Config{
		Store: StoreConfig{Driver: DriverBadger, Path: "skillscope.db"},
		Embedding: EmbeddingConfig{
			Provider:    string(a.Provider),
			Host:        a.EmbeddingHost,
			Model:       a.EmbeddingModel,
			Dimension:   a.Dimension,
			BatchSize:   a.BatchSize,
			MaxAttempts: a.MaxAttempts,
			RetryDelay:  a.RetryDelay,
			CallTimeout: a.CallTimeout,
		},
		Synthesizer: SynthesizerConfig{Host: a.SynthesizerHost, Timeout: 2 * time.Minute},
		Ingest: IngestConfig{
			ChunkSize:       chunker.DefaultSize,
			ChunkOverlap:    chunker.DefaultOverlap,
			CommitBatchSize: 10,
		},
		Retrieval: RetrievalConfig{TopK: 10},
		Cache:     CacheConfig{MaxAge: 24 * time.Hour},
		Connectors: ConnectorConfig{
			MaxPerSource: 50,
			FetchTimeout: time.Minute,
			RemoteOK:     true,
		},
		Adzuna: AdzunaConfig{Country: "us"},
	}
}

// AI returns the provider configuration derived from the embedding and
// synthesizer sections.
func (c *Config) AI() *ai.Config {
	kind, _ := ai.ParseProviderKind(c.Embedding.Provider)
	return ai.NewConfig(
		ai.WithProvider(kind),
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIKey(c.Embedding.APIKey),
		ai.WithDimension(c.Embedding.Dimension),
		ai.WithBatchSize(c.Embedding.BatchSize),
		ai.WithRetryPolicy(c.Embedding.MaxAttempts, c.Embedding.RetryDelay),
		ai.WithCallTimeout(c.Embedding.CallTimeout),
		ai.WithRequestsPerSecond(c.Embedding.RequestsPerSecond),
		ai.WithCacheDir(c.Embedding.CacheDir),
		ai.WithSynthesizerHost(c.Synthesizer.Host),
		ai.WithSynthesizerModel(c.Synthesizer.Model),
		ai.WithSynthesizerAPIKey(c.Synthesizer.APIKey),
	)
}

// Validate checks every section. Configuration errors are fatal at startup.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverBadger:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for badger", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Store.Driver)
	}

	if _, err := chunker.New(c.Ingest.ChunkSize, c.Ingest.ChunkOverlap); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Ingest.CommitBatchSize < 1 {
		return fmt.Errorf("%w: ingest.commit_batch_size must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.MinScore < -1 || c.Retrieval.MinScore > 1 {
		return fmt.Errorf("%w: retrieval.min_score must be in [-1, 1]", ErrInvalidConfig)
	}
	if c.Cache.MaxAge < 0 {
		return fmt.Errorf("%w: cache.max_age must not be negative", ErrInvalidConfig)
	}
	if c.Synthesizer.Timeout <= 0 {
		return fmt.Errorf("%w: synthesizer.timeout must be positive", ErrInvalidConfig)
	}
	if c.Connectors.FetchTimeout <= 0 {
		return fmt.Errorf("%w: connectors.fetch_timeout must be positive", ErrInvalidConfig)
	}

	if _, err := ai.ParseProviderKind(c.Embedding.Provider); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.AI().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
