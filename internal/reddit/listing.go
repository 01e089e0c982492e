package reddit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Listing is Reddit's collection wrapper: {"data": {"children": [...]}}.
type Listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []Thing `json:"children"`
	} `json:"data"`
}

// Thing is a single listing child.
type Thing struct {
	Kind string    `json:"kind"`
	Data ThingData `json:"data"`
}

// ThingData holds the subset of post/comment fields that are normalized.
type ThingData struct {
	Title    string  `json:"title"`
	Selftext string  `json:"selftext"`
	Body     string  `json:"body"`
	Author   string  `json:"author"`
	Score    float64 `json:"score"`
}

// Normalize decodes a comments endpoint payload and maps it to a FetchResult.
//
// The usual payload is a two-element array [postListing, commentListing]. A
// bare listing is also accepted, in which case the first child is the post and
// the rest are comments. The first limit comment children are taken before
// bodiless ones are dropped, so fewer than limit comments may be returned.
func Normalize(payload []byte, limit int) (FetchResult, error) {
	post, comments, err := decodeListingPayload(payload)
	if err != nil {
		return FetchResult{}, err
	}
	if limit <= 0 || limit > MaxComments {
		limit = MaxComments
	}
	if len(comments) > limit {
		comments = comments[:limit]
	}

	result := FetchResult{
		PostContent: NewPostContent(post.Title, post.Selftext, post.Author, roundScore(post.Score)),
		Comments:    make([]Comment, 0, len(comments)),
	}
	for _, child := range comments {
		if c, ok := NewComment(child.Data.Author, child.Data.Body, roundScore(child.Data.Score)); ok {
			result.Comments = append(result.Comments, c)
		}
	}
	return result, nil
}

func decodeListingPayload(payload []byte) (ThingData, []Thing, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return ThingData{}, nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	switch trimmed[0] {
	case '[':
		var listings []Listing
		if err := json.Unmarshal(trimmed, &listings); err != nil {
			return ThingData{}, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
			return ThingData{}, nil, fmt.Errorf("%w: post listing has no children", ErrMalformedResponse)
		}
		var comments []Thing
		if len(listings) > 1 {
			comments = listings[1].Data.Children
		}
		return listings[0].Data.Children[0].Data, comments, nil
	case '{':
		var listing Listing
		if err := json.Unmarshal(trimmed, &listing); err != nil {
			return ThingData{}, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		children := listing.Data.Children
		if len(children) == 0 {
			return ThingData{}, nil, fmt.Errorf("%w: listing has no children", ErrMalformedResponse)
		}
		return children[0].Data, children[1:], nil
	default:
		return ThingData{}, nil, fmt.Errorf("%w: unexpected leading byte %q", ErrMalformedResponse, trimmed[0])
	}
}

func roundScore(score float64) int {
	return int(math.Round(score))
}
