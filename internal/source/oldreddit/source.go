// Package oldreddit scrapes posts from the old.reddit.com HTML layout.
package oldreddit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	collyfetcher "github.com/JakeFAU/reddit-content-fetcher/internal/fetcher/colly"
	"github.com/JakeFAU/reddit-content-fetcher/internal/reddit"
)

// Name identifies this source in config and metrics.
const Name = "html"

// DefaultBaseURL serves the server-rendered layout.
const DefaultBaseURL = "https://old.reddit.com"

const (
	postSelector    = "#siteTable div.thing.link"
	commentSelector = "div.commentarea > div.sitetable > div.thing.comment"
	bodySelector    = "div.usertext-body div.md"
)

// Config controls the HTML source.
type Config struct {
	BaseURL      string
	CommentLimit int
}

// Source implements reddit.ContentSource over old.reddit.com pages.
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

// Fetch loads the post page and reads the submission and its top-level comments.
func (s *Source) Fetch(ctx context.Context, ref reddit.PostReference) (reddit.FetchResult, error) {
	var (
		post     *reddit.PostContent
		comments []reddit.Comment
		seen     int
	)
	pageURL := fmt.Sprintf("%s/comments/%s/", s.cfg.BaseURL, url.PathEscape(ref.ID))

	collector := s.fetcher.NewCollector(ctx, nil)
	collector.OnHTML(postSelector, func(e *colly.HTMLElement) {
		if post != nil {
			return
		}
		content := reddit.NewPostContent(
			strings.TrimSpace(e.ChildText("a.title")),
			selectionText(e.DOM, bodySelector),
			e.Attr("data-author"),
			atoi(e.Attr("data-score")),
		)
		post = &content
	})
	collector.OnHTML(commentSelector, func(e *colly.HTMLElement) {
		// Every top-level comment counts toward the limit, deleted ones included.
		if seen >= s.cfg.CommentLimit {
			return
		}
		seen++
		if c, ok := reddit.NewComment(e.Attr("data-author"), selectionText(e.DOM, bodySelector), commentScore(e.DOM)); ok {
			comments = append(comments, c)
		}
	})

	if err := s.fetcher.Visit(ctx, collector, pageURL); err != nil {
		return reddit.FetchResult{}, fmt.Errorf("fetch %s: %w", pageURL, wrapVisitError(err))
	}
	if post == nil {
		return reddit.FetchResult{}, &reddit.FetchError{
			Source: Name,
			Op:     "parse",
			Err:    fmt.Errorf("%w: no post found at %s", reddit.ErrMalformedResponse, pageURL),
		}
	}

	if comments == nil {
		comments = []reddit.Comment{}
	}
	s.logger.Debug("post scraped", zap.String("post_id", ref.ID), zap.Int("comments", len(comments)))
	return reddit.FetchResult{PostContent: *post, Comments: comments}, nil
}

// selectionText returns the trimmed text of the first match under sel. For a
// comment that is its own body, which precedes any replies.
func selectionText(sel *goquery.Selection, selector string) string {
	match := sel.Find(selector).First()
	return strings.TrimSpace(match.Text())
}

func commentScore(sel *goquery.Selection) int {
	score := sel.Find("p.tagline span.score.unvoted").First()
	if title, ok := score.Attr("title"); ok {
		return atoi(title)
	}
	fields := strings.Fields(score.Text())
	if len(fields) == 0 {
		return 0
	}
	return atoi(fields[0])
}

func atoi(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func wrapVisitError(err error) error {
	var upstream *reddit.UpstreamError
	if errors.As(err, &upstream) {
		return upstream
	}
	return &reddit.FetchError{Source: Name, Op: "get", Err: err}
}
