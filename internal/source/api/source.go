// Package api fetches posts through Reddit's public comments JSON endpoint.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	collyfetcher "github.com/JakeFAU/reddit-content-fetcher/internal/fetcher/colly"
	"github.com/JakeFAU/reddit-content-fetcher/internal/reddit"
)

// Name identifies this source in config and metrics.
const Name = "api"

// DefaultBaseURL is the public Reddit origin.
const DefaultBaseURL = "https://www.reddit.com"

// Config controls the API source.
type Config struct {
	BaseURL           string
	CommentLimit      int
	ResolveShareLinks bool
}

// Source implements reddit.ContentSource over the JSON endpoint.
type Source struct {
	cfg     Config
	fetcher *collyfetcher.Fetcher
	logger  *zap.Logger
}

// New constructs a Source.
func New(cfg Config, fetcher *collyfetcher.Fetcher, logger *zap.Logger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.CommentLimit <= 0 || cfg.CommentLimit > reddit.MaxComments {
		cfg.CommentLimit = reddit.MaxComments
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{cfg: cfg, fetcher: fetcher, logger: logger}
}

// Name implements reddit.ContentSource.
func (s *Source) Name() string {
	return Name
}

// Fetch retrieves the post and its first comments.
func (s *Source) Fetch(ctx context.Context, ref reddit.PostReference) (reddit.FetchResult, error) {
	id := ref.ID
	if ref.Kind == reddit.PostKindShare && s.cfg.ResolveShareLinks {
		id = s.resolveShareID(ctx, ref)
	}

	endpoint := s.endpoint(id)
	headers := http.Header{"Accept": {"application/json"}}
	resp, err := s.fetcher.Fetch(ctx, endpoint, headers)
	if err != nil {
		return reddit.FetchResult{}, fmt.Errorf("fetch %s: %w", endpoint, asFetchError("get", err))
	}

	result, err := reddit.Normalize(resp.Body, s.cfg.CommentLimit)
	if err != nil {
		return reddit.FetchResult{}, &reddit.FetchError{Source: Name, Op: "decode", Err: err}
	}
	s.logger.Debug("post fetched",
		zap.String("post_id", id),
		zap.Int("comments", len(result.Comments)),
		zap.Duration("duration", resp.Duration),
	)
	return result, nil
}

// endpoint asks Reddit for only as many comments as are returned, which keeps
// large threads well under the collector's body cap.
func (s *Source) endpoint(id string) string {
	return fmt.Sprintf("%s/comments/%s.json?raw_json=1&limit=%d", s.cfg.BaseURL, url.PathEscape(id), s.cfg.CommentLimit)
}

// resolveShareID follows a share link to its canonical post and returns the
// identifier found there. The share token is returned when resolution fails.
func (s *Source) resolveShareID(ctx context.Context, ref reddit.PostReference) string {
	var (
		lastRedirect string
		canonical    string
	)
	collector := s.fetcher.NewCollector(ctx, nil)
	collector.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("stopped after %d redirects", len(via))
		}
		lastRedirect = req.URL.String()
		return nil
	})
	collector.OnHTML(`link[rel="canonical"]`, func(e *colly.HTMLElement) {
		if canonical == "" {
			canonical = e.Request.AbsoluteURL(e.Attr("href"))
		}
	})

	if err := s.fetcher.Visit(ctx, collector, ref.URL); err != nil {
		s.logger.Warn("share link resolution failed", zap.String("url", ref.URL), zap.Error(err))
	}
	for _, candidate := range []string{canonical, lastRedirect} {
		if resolved, ok := reddit.ParseReference(candidate); ok && resolved.Kind != reddit.PostKindShare {
			s.logger.Debug("share link resolved", zap.String("share_id", ref.ID), zap.String("post_id", resolved.ID))
			return resolved.ID
		}
	}
	return ref.ID
}

// asFetchError leaves upstream errors untouched so their status survives.
func asFetchError(op string, err error) error {
	var upstream *reddit.UpstreamError
	if errors.As(err, &upstream) {
		return upstream
	}
	return &reddit.FetchError{Source: Name, Op: op, Err: err}
}
