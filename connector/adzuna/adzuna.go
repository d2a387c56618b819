// Package adzuna fetches postings from the Adzuna search API.
package adzuna

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/poiesic/skillscope/connector"
	"github.com/poiesic/skillscope/core"
)

const (
	// Name is the SourceName of Adzuna postings.
	Name = "Adzuna"

	// DefaultBaseURL is the Adzuna API host.
	DefaultBaseURL = "https://api.adzuna.com"

	// DefaultCountry is the country index searched when none is configured.
	DefaultCountry = "us"

	resultsPerPage = 50
)

// Config holds Adzuna credentials and search scope.
type Config struct {
	AppID   string
	AppKey  string
	Country string
	BaseURL string
}

// Fetcher queries the Adzuna search endpoint.
type Fetcher struct {
	client  *connector.Client
	appID   string
	appKey  string
	country string
	logger  *slog.Logger
}

var _ connector.Fetcher = (*Fetcher)(nil)

// New creates an Adzuna fetcher. App id and key are required.
func New(cfg Config) (*Fetcher, error) {
	if cfg.AppID == "" || cfg.AppKey == "" {
		return nil, fmt.Errorf("%w: adzuna app id and key", connector.ErrMissingCredentials)
	}
	if cfg.Country == "" {
		cfg.Country = DefaultCountry
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Fetcher{
		client:  connector.NewClient(connector.ClientConfig{BaseURL: cfg.BaseURL, RequestsPerSecond: 1}),
		appID:   cfg.AppID,
		appKey:  cfg.AppKey,
		country: cfg.Country,
		logger:  slog.Default().With("component", "adzuna", "country", cfg.Country),
	}, nil
}

func (f *Fetcher) Name() string { return Name }

// Fetch returns the first page of the newest postings for term near location.
func (f *Fetcher) Fetch(ctx context.Context, term, location string) ([]core.RawPosting, error) {
	f.logger.Info("fetching listings", "term", term, "location", location)

	query := map[string]string{
		"app_id":           f.appID,
		"app_key":          f.appKey,
		"what":             term,
		"results_per_page": strconv.Itoa(resultsPerPage),
		"sort_by":          "date",
	}
	if location != "" {
		query["where"] = location
	}

	body, err := f.client.Get(ctx, "/v1/api/jobs/"+url.PathEscape(f.country)+"/search/1", query, nil)
	if err != nil {
		return nil, err
	}

	results := gjson.GetBytes(body, "results").Array()
	raws := make([]core.RawPosting, 0, len(results))
	for _, job := range results {
		raws = append(raws, parse(job))
	}

	f.logger.Info("fetched listings", "term", term, "count", len(raws))
	return raws, nil
}

func parse(job gjson.Result) core.RawPosting {
	employer := job.Get("company.display_name").String()
	if employer == "" {
		employer = "Unknown"
	}
	raw := core.RawPosting{
		Title:       connector.CleanText(job.Get("title").String()),
		Employer:    employer,
		Location:    job.Get("location.display_name").String(),
		Description: connector.CleanText(job.Get("description").String()),
		SourceURL:   job.Get("redirect_url").String(),
		SourceName:  Name,
		JobType:     jobType(job),
	}

	if created, err := time.Parse(time.RFC3339, job.Get("created").String()); err == nil {
		raw.PostedAt = created.UTC()
	}

	lo, hi := int64(job.Get("salary_min").Float()), int64(job.Get("salary_max").Float())
	if lo > 0 && hi > 0 {
		raw.Salary = &core.SalaryRange{
			Min:  lo,
			Max:  hi,
			Text: fmt.Sprintf("%s - %s", thousands(lo), thousands(hi)),
		}
	}

	connector.Enrich(&raw)
	return raw
}

// jobType prefers contract_type ("contract", "permanent") and falls back to
// contract_time ("full_time", "part_time").
func jobType(job gjson.Result) core.JobType {
	if t := core.ParseJobType(job.Get("contract_type").String()); t != core.JobTypeUnknown && t != core.JobTypeFullTime {
		return t
	}
	if t := core.ParseJobType(job.Get("contract_time").String()); t != core.JobTypeUnknown {
		return t
	}
	return core.ParseJobType(job.Get("contract_type").String())
}

func thousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
