// Package source selects and instruments the configured reddit.ContentSource.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-content-fetcher/internal/config"
	collyfetcher "github.com/JakeFAU/reddit-content-fetcher/internal/fetcher/colly"
	"github.com/JakeFAU/reddit-content-fetcher/internal/metrics"
	"github.com/JakeFAU/reddit-content-fetcher/internal/reddit"
	"github.com/JakeFAU/reddit-content-fetcher/internal/source/api"
	"github.com/JakeFAU/reddit-content-fetcher/internal/source/oldreddit"
	"github.com/JakeFAU/reddit-content-fetcher/internal/source/render"
)

// ErrUnknownKind is returned for an unsupported source.kind value.
var ErrUnknownKind = errors.New("unknown content source kind")

// New builds the content source named by cfg.Source.Kind, wrapped with
// logging and metrics.
func New(cfg config.Config, logger *zap.Logger) (reddit.ContentSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	srcLogger := logger.Named("source").With(zap.String("kind", cfg.Source.Kind))

	var src reddit.ContentSource
	switch cfg.Source.Kind {
	case api.Name:
		src = api.New(api.Config{
			BaseURL:           cfg.Source.APIBaseURL,
			CommentLimit:      cfg.Source.CommentLimit,
			ResolveShareLinks: cfg.Source.ResolveShareLinks,
		}, newCollyFetcher(cfg), srcLogger)
	case oldreddit.Name:
		src = oldreddit.New(oldreddit.Config{
			BaseURL:      cfg.Source.OldBaseURL,
			CommentLimit: cfg.Source.CommentLimit,
		}, newCollyFetcher(cfg), srcLogger)
	case render.Name:
		headless, err := render.NewChromedp(render.Config{
			DesktopUserAgent:  cfg.Source.UserAgent,
			MobileUserAgent:   cfg.Source.MobileUserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
			CommentLimit:      cfg.Source.CommentLimit,
		}, srcLogger)
		if err != nil {
			return nil, fmt.Errorf("init headless source: %w", err)
		}
		src = headless
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Source.Kind)
	}
	return Instrument(src, srcLogger), nil
}

func newCollyFetcher(cfg config.Config) *collyfetcher.Fetcher {
	return collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Source.UserAgent,
		Timeout:   time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	})
}

// Instrument wraps src so every fetch is logged and counted.
func Instrument(src reddit.ContentSource, logger *zap.Logger) reddit.ContentSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &instrumented{next: src, logger: logger}
}

type instrumented struct {
	next   reddit.ContentSource
	logger *zap.Logger
}

func (i *instrumented) Name() string {
	return i.next.Name()
}

func (i *instrumented) Fetch(ctx context.Context, ref reddit.PostReference) (reddit.FetchResult, error) {
	start := time.Now()
	result, err := i.next.Fetch(ctx, ref)
	elapsed := time.Since(start)

	outcome := outcomeOf(err)
	metrics.ObserveFetch(i.next.Name(), outcome, elapsed, len(result.Comments))

	fields := []zap.Field{
		zap.String("post_id", ref.ID),
		zap.String("post_kind", string(ref.Kind)),
		zap.String("outcome", outcome),
		zap.Duration("duration", elapsed),
	}
	if err != nil {
		i.logger.Warn("fetch failed", append(fields, zap.Error(err))...)
		return reddit.FetchResult{}, err
	}
	i.logger.Info("fetch completed", append(fields, zap.Int("comments", len(result.Comments)))...)
	return result, nil
}

// Close releases the wrapped source's resources when it holds any.
func (i *instrumented) Close() {
	if c, ok := i.next.(interface{ Close() }); ok {
		c.Close()
	}
}

func outcomeOf(err error) string {
	var upstream *reddit.UpstreamError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, reddit.ErrNoPostID):
		return metrics.OutcomeClientError
	case errors.As(err, &upstream):
		return metrics.OutcomeUpstreamError
	default:
		return metrics.OutcomeFetchError
	}
}
