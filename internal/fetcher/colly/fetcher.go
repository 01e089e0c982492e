// Package collyfetcher performs single-page Reddit requests using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/reddit-content-fetcher/internal/reddit"
)

// BrowserUserAgent mimics a desktop browser; Reddit throttles default library agents.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const defaultTimeout = 15 * time.Second

// MaxBodySize caps a single response body.
const MaxBodySize = 32 << 20

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Response is the raw outcome of a successful GET.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher builds one collector per request over a shared connection pool.
type Fetcher struct {
	cfg       Config
	transport http.RoundTripper
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = BrowserUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Fetcher{
		cfg:       cfg,
		transport: newHTTPTransport(),
	}
}

// NewCollector returns a fresh collector bound to ctx and configured with the
// fetcher's user agent, timeout and transport. Every header in headers
// replaces the collector's default value.
func (f *Fetcher) NewCollector(ctx context.Context, headers http.Header) *colly.Collector {
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.UserAgent(f.cfg.UserAgent),
		colly.MaxBodySize(MaxBodySize),
		colly.StdlibContext(ctx),
	)
	c.IgnoreRobotsTxt = true
	c.SetRequestTimeout(f.cfg.Timeout)
	c.WithTransport(f.transport)
	if len(headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			copyHeaders(headers, r)
		})
	}
	return c
}

// Fetch executes a single HTTP GET. Non-2xx answers are returned as
// *reddit.UpstreamError carrying the upstream status and body.
func (f *Fetcher) Fetch(ctx context.Context, url string, headers http.Header) (Response, error) {
	var result Response
	collector := f.NewCollector(ctx, headers)
	f.configureCollectorHooks(collector, time.Now(), &result)

	if err := f.Visit(ctx, collector, url); err != nil {
		return Response{}, err
	}
	return result, nil
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, start time.Time, result *Response) {
	hooks.OnResponse(func(r *colly.Response) {
		*result = Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
}

// Visit runs collector against url and blocks until it finishes or ctx is done.
// The collector should come from NewCollector with the same ctx so the
// in-flight request is aborted on cancellation.
func (f *Fetcher) Visit(ctx context.Context, collector *colly.Collector, url string) error {
	var fetchErr error
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = classifyError(url, r, err)
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return fetchErr
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func classifyError(url string, r *colly.Response, err error) error {
	if r != nil && r.StatusCode >= http.StatusMultipleChoices {
		target := url
		if r.Request != nil && r.Request.URL != nil {
			target = r.Request.URL.String()
		}
		return &reddit.UpstreamError{
			URL:        target,
			StatusCode: r.StatusCode,
			Body:       string(r.Body),
		}
	}
	return fmt.Errorf("colly response failed: %w", err)
}

func copyHeaders(headers http.Header, r *colly.Request) {
	for key, values := range headers {
		r.Headers.Del(key)
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
