// Package reddit defines the post/comment model shared by every content source,
// along with URL parsing and listing normalization.
package reddit

import "context"

// UnknownAuthor is reported when a post or comment carries no author.
const UnknownAuthor = "unknown"

// MaxComments caps the comment slice taken from a post.
const MaxComments = 10

// PostKind records which URL shape a post identifier was taken from.
type PostKind string

// URL shapes recognized by ParseReference.
const (
	PostKindMobile   PostKind = "mobile"
	PostKindStandard PostKind = "standard"
	PostKindShare    PostKind = "share"
)

// PostReference is a post URL together with the identifier derived from it.
type PostReference struct {
	URL       string
	ID        string
	Kind      PostKind
	Subreddit string
}

// PostContent holds the submission fields returned to clients.
type PostContent struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Author string `json:"author"`
	Score  int    `json:"score"`
}

// Comment is a single top-level comment.
type Comment struct {
	Author string `json:"author"`
	Body   string `json:"body"`
	Score  int    `json:"score"`
}

// FetchResult is a post plus up to MaxComments comments in source order.
type FetchResult struct {
	PostContent
	Comments []Comment `json:"comments"`
}

// ContentSource retrieves a post and its top comments.
type ContentSource interface {
	Fetch(ctx context.Context, ref PostReference) (FetchResult, error)
	Name() string
}

func authorOrUnknown(author string) string {
	if author == "" {
		return UnknownAuthor
	}
	return author
}

// NewComment applies the author default. It reports false when body is empty,
// in which case the comment must be dropped.
func NewComment(author, body string, score int) (Comment, bool) {
	if body == "" {
		return Comment{}, false
	}
	return Comment{Author: authorOrUnknown(author), Body: body, Score: score}, true
}

// NewPostContent applies the author default.
func NewPostContent(title, body, author string, score int) PostContent {
	return PostContent{Title: title, Body: body, Author: authorOrUnknown(author), Score: score}
}
