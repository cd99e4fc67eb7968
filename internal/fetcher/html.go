// Package fetcher provides the rate-limited HTML page fetcher used by the
// collection and profile stages.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Browser-like UA; the directory serves a block page to obvious bots.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0 Safari/537.36"

const maxBodyBytes = 2 << 20 // 2 MiB

// Fetcher retrieves raw HTML for a URL.
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Option configures the HTMLFetcher.
type Option func(*HTMLFetcher)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *HTMLFetcher) {
		f.client = hc
	}
}

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTMLFetcher) {
		f.userAgent = ua
	}
}

// HTMLFetcher implements Fetcher with a shared politeness rate limiter.
// Each fetch is a single attempt; callers treat failures as skips.
type HTMLFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTMLFetcher creates a fetcher limited to ratePerSec requests per second.
func NewHTMLFetcher(ratePerSec float64, opts ...Option) *HTMLFetcher {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	f := &HTMLFetcher{
		client: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), 1),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchHTML performs a rate-limited GET and returns the response body.
func (f *HTMLFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "fetcher: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("fetcher: status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "fetcher: read body")
	}

	return string(body), nil
}
