package connector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent identifies skillscope to job boards.
	DefaultUserAgent = "skillscope/1.0 (labor market research)"

	defaultTimeout = 30 * time.Second
	defaultRetries = 2
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// RequestsPerSecond bounds the request rate. Zero means unlimited.
	RequestsPerSecond float64

	// Retries is the number of extra attempts on 429 and 5xx responses.
	Retries int
}

// Client is a rate-limited JSON HTTP client shared by connectors.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// NewClient creates a Client. Zero fields take defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Client{http: rc, limiter: limiter}
}

// Get performs a rate-limited GET and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, path string, query, headers map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetHeaders(headers).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	switch code := resp.StatusCode(); {
	case code >= 200 && code < 300:
		return resp.Body(), nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, code)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, code)
	}
}

// CleanText strips HTML markup and collapses whitespace.
func CleanText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}
