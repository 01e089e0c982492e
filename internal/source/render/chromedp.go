// Package render scrapes posts from the rendered page using headless Chrome.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-content-fetcher/internal/reddit"
)

// Name identifies this source in config and metrics.
const Name = "render"

const defaultNavTimeout = 45 * time.Second

// Default user agents for each layout.
const (
	DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	MobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 " +
		"(KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
)

// Layout names the selectors used to read a post from one page variant.
// Selector strings are tied to Reddit's markup.
type Layout struct {
	Name    string
	Marker  string
	Title   string
	Body    string
	Comment string
	// CommentText narrows a comment element to its text node container.
	// The whole comment element is read when empty.
	CommentText string
	// AuthorAttr and ScoreAttr are read from the marker and comment elements
	// when the layout exposes them as attributes.
	AuthorAttr string
	ScoreAttr  string
}

var (
	desktopLayout = Layout{
		Name:    "desktop",
		Marker:  `[data-testid='post-content']`,
		Title:   `[data-testid='post-content'] h1`,
		Body:    `[data-testid='post-content'] div[data-testid='post-content-text']`,
		Comment: `[data-testid='comment']`,
	}
	mobileLayout = Layout{
		Name:        "mobile",
		Marker:      `shreddit-post`,
		Title:       `shreddit-post h1`,
		Body:        `shreddit-post div[slot='text-body']`,
		Comment:     `shreddit-comment[depth='0']`,
		CommentText: `div[slot='comment']`,
		AuthorAttr:  "author",
		ScoreAttr:   "score",
	}
)

// Config controls the behavior of the headless source.
type Config struct {
	DesktopUserAgent  string
	MobileUserAgent   string
	NavigationTimeout time.Duration
	CommentLimit      int
}

// Source implements reddit.ContentSource using chromedp.
type Source struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger
}

// NewChromedp creates a headless source. Every fetch launches its own browser
// from the shared allocator and closes it before returning.
func NewChromedp(cfg Config, logger *zap.Logger) (*Source, error) {
	if cfg.NavigationTimeout < 0 {
		return nil, fmt.Errorf("navigation timeout must be >= 0")
	}
	if cfg.DesktopUserAgent == "" {
		cfg.DesktopUserAgent = DesktopUserAgent
	}
	if cfg.MobileUserAgent == "" {
		cfg.MobileUserAgent = MobileUserAgent
	}
	if cfg.CommentLimit <= 0 || cfg.CommentLimit > reddit.MaxComments {
		cfg.CommentLimit = reddit.MaxComments
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Source{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Name implements reddit.ContentSource.
func (s *Source) Name() string {
	return Name
}

// Close shuts the browser down.
func (s *Source) Close() {
	s.allocCancel()
}

// Fetch navigates to the post URL and scrapes it. Any navigation error or
// selector timeout fails the whole request.
func (s *Source) Fetch(ctx context.Context, ref reddit.PostReference) (reddit.FetchResult, error) {
	layout, userAgent := s.layoutFor(ref.URL)

	taskCtx, taskCancel := chromedp.NewContext(s.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, s.navTimeout())
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var page scrapedPage
	actions := []chromedp.Action{
		userAgentAction(userAgent),
		chromedp.Navigate(ref.URL),
		chromedp.WaitVisible(layout.Marker, chromedp.ByQuery),
		chromedp.Evaluate(scrapeScript(layout, s.cfg.CommentLimit), &page),
	}
	start := time.Now()
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return reddit.FetchResult{}, &reddit.FetchError{Source: Name, Op: "chromedp run", Err: err}
	}

	s.logger.Debug("page rendered",
		zap.String("url", ref.URL),
		zap.String("layout", layout.Name),
		zap.Int("comments", len(page.Comments)),
		zap.Duration("duration", time.Since(start)),
	)
	return page.toResult(), nil
}

func (s *Source) layoutFor(rawURL string) (Layout, string) {
	if reddit.IsMobileURL(rawURL) {
		return mobileLayout, s.cfg.MobileUserAgent
	}
	return desktopLayout, s.cfg.DesktopUserAgent
}

func (s *Source) navTimeout() time.Duration {
	if s.cfg.NavigationTimeout > 0 {
		return s.cfg.NavigationTimeout
	}
	return defaultNavTimeout
}

func userAgentAction(userAgent string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if err := emulation.SetUserAgentOverride(userAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}

type scrapedElement struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Score  string `json:"score"`
}

type scrapedPage struct {
	Title    string           `json:"title"`
	Body     string           `json:"body"`
	Author   string           `json:"author"`
	Score    string           `json:"score"`
	Comments []scrapedElement `json:"comments"`
}

func (p scrapedPage) toResult() reddit.FetchResult {
	result := reddit.FetchResult{
		PostContent: reddit.NewPostContent(p.Title, p.Body, p.Author, parseScore(p.Score)),
		Comments:    make([]reddit.Comment, 0, len(p.Comments)),
	}
	for _, el := range p.Comments {
		if c, ok := reddit.NewComment(el.Author, el.Text, parseScore(el.Score)); ok {
			result.Comments = append(result.Comments, c)
		}
	}
	return result
}

func parseScore(raw string) int {
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return score
}

// scrapeScript builds the in-page script that reads the layout's selectors.
// Comments past limit are never read.
func scrapeScript(layout Layout, limit int) string {
	q := func(s string) string {
		b, _ := json.Marshal(s)
		return string(b)
	}
	return fmt.Sprintf(`(() => {
  const text = (el) => el ? (el.textContent || "").trim() : "";
  const attr = (el, name) => (el && name) ? (el.getAttribute(name) || "") : "";
  const marker = document.querySelector(%[1]s);
  const comments = Array.from(document.querySelectorAll(%[4]s)).slice(0, %[7]d).map((el) => ({
    text: text(%[8]s ? (el.querySelector(%[8]s) || el) : el),
    author: attr(el, %[5]s),
    score: attr(el, %[6]s),
  }));
  return {
    title: text(document.querySelector(%[2]s)),
    body: text(document.querySelector(%[3]s)),
    author: attr(marker, %[5]s),
    score: attr(marker, %[6]s),
    comments,
  };
})()`,
		q(layout.Marker), q(layout.Title), q(layout.Body), q(layout.Comment),
		q(layout.AuthorAttr), q(layout.ScoreAttr), limit, q(layout.CommentText))
}
