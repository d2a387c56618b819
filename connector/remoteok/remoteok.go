// Package remoteok fetches postings from the public RemoteOK JSON feed.
package remoteok

import (
	"context"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"

	"github.com/poiesic/skillscope/connector"
	"github.com/poiesic/skillscope/core"
)

const (
	// Name is the SourceName of RemoteOK postings.
	Name = "RemoteOK"

	// DefaultBaseURL is the public API host.
	DefaultBaseURL = "https://remoteok.com"
)

// Fetcher reads the RemoteOK feed. The feed is not searchable server side, so
// listings are filtered by term locally.
type Fetcher struct {
	client *connector.Client
	now    func() time.Time
	logger *slog.Logger
}

var _ connector.Fetcher = (*Fetcher)(nil)

// New creates a RemoteOK fetcher. An empty baseURL uses DefaultBaseURL.
func New(baseURL string) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		client: connector.NewClient(connector.ClientConfig{BaseURL: baseURL, RequestsPerSecond: 0.5}),
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default().With("component", "remoteok"),
	}
}

func (f *Fetcher) Name() string { return Name }

// Fetch returns feed listings whose title, tags or description mention every
// word of term. Location is ignored; every RemoteOK listing is remote.
func (f *Fetcher) Fetch(ctx context.Context, term, _ string) ([]core.RawPosting, error) {
	f.logger.Info("fetching listings", "term", term)
	body, err := f.client.Get(ctx, "/api", nil, nil)
	if err != nil {
		return nil, err
	}

	var raws []core.RawPosting
	gjson.ParseBytes(body).ForEach(func(_, job gjson.Result) bool {
		// The first element is a legal notice, not a listing.
		if !job.Get("position").Exists() {
			return true
		}
		raw := f.parse(job)
		if !connector.MatchesTerm(term, raw.Title, raw.Description, job.Get("tags").Raw) {
			return true
		}
		raws = append(raws, raw)
		return true
	})

	f.logger.Info("fetched listings", "term", term, "count", len(raws))
	return raws, nil
}

func (f *Fetcher) parse(job gjson.Result) core.RawPosting {
	raw := core.RawPosting{
		Title:       job.Get("position").String(),
		Employer:    job.Get("company").String(),
		Location:    job.Get("location").String(),
		Description: connector.CleanText(job.Get("description").String()),
		SourceURL:   job.Get("url").String(),
		SourceName:  Name,
		JobType:     core.ParseJobType(job.Get("type").String()),
		RemoteMode:  core.RemoteFull,
	}
	if raw.Location == "" {
		raw.Location = "Remote"
	}
	if raw.JobType == core.JobTypeUnknown {
		raw.JobType = core.JobTypeFullTime
	}

	if epoch := job.Get("epoch").Int(); epoch > 0 {
		raw.PostedAt = time.Unix(epoch, 0).UTC()
	} else if ts, err := time.Parse(time.RFC3339, job.Get("date").String()); err == nil {
		raw.PostedAt = ts.UTC()
	}
	if raw.PostedAt.After(f.now()) {
		raw.PostedAt = f.now()
	}

	if lo, hi := job.Get("salary_min").Int(), job.Get("salary_max").Int(); lo > 0 || hi > 0 {
		raw.Salary = &core.SalaryRange{Min: lo, Max: hi, Currency: "USD"}
	}

	connector.Enrich(&raw)
	return raw
}
