package render

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/JakeFAU/reddit-content-fetcher/internal/reddit"
)

func TestNewChromedpValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewChromedp(Config{NavigationTimeout: -time.Second}, nil); err == nil {
		t.Fatal("expected error for negative navigation timeout")
	}
	src, err := NewChromedp(Config{CommentLimit: 50}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()
	if src.cfg.CommentLimit != reddit.MaxComments {
		t.Fatalf("expected comment limit clamped to %d, got %d", reddit.MaxComments, src.cfg.CommentLimit)
	}
	if src.cfg.DesktopUserAgent != DesktopUserAgent || src.cfg.MobileUserAgent != MobileUserAgent {
		t.Fatalf("expected default user agents, got %+v", src.cfg)
	}
	if src.Name() != Name {
		t.Fatalf("expected name %q, got %q", Name, src.Name())
	}
}

func TestSourceNavTimeoutDefault(t *testing.T) {
	t.Parallel()

	src := &Source{}
	if got := src.navTimeout(); got != defaultNavTimeout {
		t.Fatalf("expected default nav timeout, got %v", got)
	}
	src.cfg.NavigationTimeout = time.Second
	if got := src.navTimeout(); got != time.Second {
		t.Fatalf("expected override to be used, got %v", got)
	}
}

func TestLayoutForPicksUserAgentAndMarker(t *testing.T) {
	t.Parallel()

	src := &Source{cfg: Config{DesktopUserAgent: "desk", MobileUserAgent: "phone"}}

	layout, ua := src.layoutFor("https://www.reddit.com/r/golang/comments/abc/title/")
	if layout.Name != "desktop" || ua != "desk" {
		t.Fatalf("expected desktop layout, got %s/%s", layout.Name, ua)
	}

	for _, u := range []string{
		"https://www.reddit.com/m/comments/abc/",
		"https://www.reddit.com/mobile/r/golang/comments/abc/",
	} {
		layout, ua = src.layoutFor(u)
		if layout.Name != "mobile" || ua != "phone" {
			t.Fatalf("expected mobile layout for %s, got %s/%s", u, layout.Name, ua)
		}
	}
	if desktopLayout.Marker == mobileLayout.Marker {
		t.Fatal("expected layout markers to differ")
	}
}

func TestScrapeScriptEmbedsSelectors(t *testing.T) {
	t.Parallel()

	script := scrapeScript(desktopLayout, 10)
	for _, want := range []string{
		`"[data-testid='post-content'] h1"`,
		`"[data-testid='comment']"`,
		".slice(0, 10)",
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("expected script to contain %s:\n%s", want, script)
		}
	}

	script = scrapeScript(mobileLayout, 3)
	if !strings.Contains(script, `"div[slot='comment']"`) || !strings.Contains(script, ".slice(0, 3)") {
		t.Fatalf("unexpected mobile script:\n%s", script)
	}
	if strings.Contains(script, "%!") {
		t.Fatalf("script has formatting errors:\n%s", script)
	}
}

func TestScrapedPageToResult(t *testing.T) {
	t.Parallel()

	page := scrapedPage{
		Title: "Title",
		Body:  "",
		Score: " 42 ",
		Comments: []scrapedElement{
			{Text: "first", Author: "alice", Score: "7"},
			{Text: ""},
			{Text: "third", Score: "n/a"},
		},
	}
	result := page.toResult()
	if result.Title != "Title" || result.Author != reddit.UnknownAuthor || result.Score != 42 {
		t.Fatalf("unexpected post content: %+v", result.PostContent)
	}
	want := []reddit.Comment{
		{Author: "alice", Body: "first", Score: 7},
		{Author: reddit.UnknownAuthor, Body: "third", Score: 0},
	}
	if len(result.Comments) != len(want) {
		t.Fatalf("expected %d comments, got %+v", len(want), result.Comments)
	}
	for i := range want {
		if result.Comments[i] != want[i] {
			t.Fatalf("comment %d: expected %+v, got %+v", i, want[i], result.Comments[i])
		}
	}
}

// requireChrome skips when no Chrome or Chromium binary is installed.
func requireChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary found on PATH")
}

func TestFetchFailsWhenMarkerNeverAppears(t *testing.T) {
	requireChrome(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><h1>Not a post</h1><div data-testid="comment">orphan</div></body></html>`)
	}))
	defer ts.Close()

	src, err := NewChromedp(Config{NavigationTimeout: 3 * time.Second}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	start := time.Now()
	result, err := src.Fetch(context.Background(), reddit.PostReference{ID: "abc", URL: ts.URL + "/r/golang/comments/abc/"})
	if err == nil {
		t.Fatal("expected an error when the post marker is missing")
	}
	var fetchErr *reddit.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *reddit.FetchError, got %T: %v", err, err)
	}
	if fetchErr.Source != Name {
		t.Fatalf("expected source %q, got %q", Name, fetchErr.Source)
	}
	if got := reddit.HTTPStatus(err); got != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", got)
	}
	if result.Title != "" || len(result.Comments) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if elapsed := time.Since(start); elapsed > 30*time.Second {
		t.Fatalf("navigation timeout not honored, took %v", elapsed)
	}
}

func TestFetchCanceledByCaller(t *testing.T) {
	requireChrome(t)

	src, err := NewChromedp(Config{NavigationTimeout: 30 * time.Second}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Fetch(ctx, reddit.PostReference{ID: "abc", URL: "https://www.reddit.com/comments/abc"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}
