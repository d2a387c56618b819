package ingestion

import (
	"context"
	"log/slog"

	"github.com/poiesic/skillscope/core"
)

// Source fetches raw postings for a set of search terms.
// connector.Manager is the production implementation.
type Source interface {
	// FetchAll returns deduplicated postings from every configured source,
	// at most maxPerSource from each. A non-nil error with a non-empty result
	// means some sources failed.
	FetchAll(ctx context.Context, terms []string, location string, maxPerSource int) ([]core.RawPosting, error)
}

// Service fetches postings from a Source and feeds them to a Pipeline.
type Service struct {
	source   Source
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewService creates an ingestion service.
func NewService(source Source, pipeline *Pipeline, logger *slog.Logger) (*Service, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:   source,
		pipeline: pipeline,
		logger:   logger.With("component", "ingestion-service"),
	}, nil
}

// Ingest fetches up to maxItems postings per source for terms and ingests them.
// Partial source failures are logged; the run fails only when nothing was fetched.
func (s *Service) Ingest(ctx context.Context, terms []string, location string, maxItems int) (*core.IngestStats, error) {
	s.logger.Info("starting live ingestion", "terms", terms, "location", location, "maxItems", maxItems)

	raws, err := s.source.FetchAll(ctx, terms, location, maxItems)
	if err != nil {
		if len(raws) == 0 {
			s.logger.Error("fetch failed", "err", err)
			return &core.IngestStats{Errors: 1}, err
		}
		s.logger.Warn("some sources failed", "err", err, "fetched", len(raws))
	}
	if len(raws) == 0 {
		s.logger.Info("no postings fetched")
		return &core.IngestStats{}, nil
	}

	return s.pipeline.Ingest(ctx, raws)
}
