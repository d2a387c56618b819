// Package usajobs fetches postings from the USAJOBS search API.
package usajobs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/poiesic/skillscope/connector"
	"github.com/poiesic/skillscope/core"
)

const (
	// Name is the SourceName of USAJOBS postings.
	Name = "USAJobs"

	// DefaultBaseURL is the USAJOBS API host.
	DefaultBaseURL = "https://data.usajobs.gov"

	resultsPerPage = 50
)

// Config holds the USAJOBS registration email and API key.
type Config struct {
	Email   string
	APIKey  string
	BaseURL string
}

// Fetcher queries the USAJOBS search endpoint.
type Fetcher struct {
	client  *connector.Client
	headers map[string]string
	logger  *slog.Logger
}

var _ connector.Fetcher = (*Fetcher)(nil)

// New creates a USAJOBS fetcher. Email and API key are required.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Email == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: usajobs email and api key", connector.ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Fetcher{
		client: connector.NewClient(connector.ClientConfig{BaseURL: cfg.BaseURL, UserAgent: cfg.Email, RequestsPerSecond: 1}),
		headers: map[string]string{
			"Authorization-Key": cfg.APIKey,
		},
		logger: slog.Default().With("component", "usajobs"),
	}, nil
}

func (f *Fetcher) Name() string { return Name }

// Fetch returns the first page of postings for term near location.
func (f *Fetcher) Fetch(ctx context.Context, term, location string) ([]core.RawPosting, error) {
	f.logger.Info("fetching listings", "term", term, "location", location)

	query := map[string]string{
		"Keyword":        term,
		"ResultsPerPage": strconv.Itoa(resultsPerPage),
	}
	if location != "" {
		query["LocationName"] = location
	}

	body, err := f.client.Get(ctx, "/api/Search", query, f.headers)
	if err != nil {
		return nil, err
	}

	items := gjson.GetBytes(body, "SearchResult.SearchResultItems").Array()
	raws := make([]core.RawPosting, 0, len(items))
	for _, item := range items {
		raws = append(raws, parse(item.Get("MatchedObjectDescriptor")))
	}

	f.logger.Info("fetched listings", "term", term, "count", len(raws))
	return raws, nil
}

func parse(job gjson.Result) core.RawPosting {
	raw := core.RawPosting{
		Title:        job.Get("PositionTitle").String(),
		Employer:     job.Get("OrganizationName").String(),
		Location:     job.Get("PositionLocationDisplay").String(),
		Description:  connector.CleanText(job.Get("UserArea.Details.JobSummary").String()),
		Requirements: connector.CleanText(job.Get("QualificationSummary").String()),
		SourceURL:    job.Get("PositionURI").String(),
		SourceName:   Name,
		JobType:      core.ParseJobType(job.Get("PositionSchedule.0.Name").String()),
	}

	if ts, err := time.Parse(time.RFC3339, job.Get("PublicationStartDate").String()); err == nil {
		raw.PostedAt = ts.UTC()
	} else if ts, err := time.Parse("2006-01-02T15:04:05.999", job.Get("PublicationStartDate").String()); err == nil {
		raw.PostedAt = ts.UTC()
	}

	pay := job.Get("PositionRemuneration.0")
	lo, hi := int64(pay.Get("MinimumRange").Float()), int64(pay.Get("MaximumRange").Float())
	if lo > 0 && hi > 0 {
		raw.Salary = &core.SalaryRange{
			Min:      lo,
			Max:      hi,
			Currency: "USD",
			Text:     fmt.Sprintf("$%d - $%d %s", lo, hi, pay.Get("RateIntervalCode").String()),
		}
	}

	connector.Enrich(&raw)
	return raw
}
