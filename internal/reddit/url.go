package reddit

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	mobileCommentsPattern = regexp.MustCompile(`/m/comments/([^/?#]+)`)
	commentsPattern       = regexp.MustCompile(`/comments/([^/?#]+)`)
	sharePattern          = regexp.MustCompile(`/s/([^/?#]+)`)
	subredditPattern      = regexp.MustCompile(`/r/([^/?#]+)`)
)

// idPatterns is evaluated in order; the first match wins.
var idPatterns = []struct {
	re   *regexp.Regexp
	kind PostKind
}{
	{mobileCommentsPattern, PostKindMobile},
	{commentsPattern, PostKindStandard},
	{sharePattern, PostKindShare},
}

// NormalizeURL trims the input, adds a missing scheme and upgrades http to https.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	switch {
	case u == "":
		return u
	case strings.HasPrefix(u, "http://"):
		return "https://" + strings.TrimPrefix(u, "http://")
	case !strings.HasPrefix(u, "https://"):
		return "https://" + u
	}
	return u
}

// ExtractPostID returns the post identifier embedded in rawURL, or false when
// no recognized shape matches.
func ExtractPostID(rawURL string) (string, bool) {
	ref, ok := ParseReference(rawURL)
	if !ok {
		return "", false
	}
	return ref.ID, true
}

// ParseReference builds a PostReference from rawURL. Only the path is matched
// when the URL parses; otherwise the raw string is matched as-is.
func ParseReference(rawURL string) (PostReference, bool) {
	target := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		target = u.Path
	}
	for _, p := range idPatterns {
		m := p.re.FindStringSubmatch(target)
		if m == nil {
			continue
		}
		ref := PostReference{URL: rawURL, ID: m[1], Kind: p.kind}
		if sm := subredditPattern.FindStringSubmatch(target); sm != nil {
			ref.Subreddit = sm[1]
		}
		return ref, true
	}
	return PostReference{}, false
}

// IsMobileURL reports whether rawURL points at a mobile layout.
func IsMobileURL(rawURL string) bool {
	return strings.Contains(rawURL, "/m/") || strings.Contains(rawURL, "/mobile/")
}
