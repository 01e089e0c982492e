package reddit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoPostID is returned when a URL carries no recognizable post identifier.
	ErrNoPostID = errors.New("could not extract a post identifier from url")
	// ErrMalformedResponse marks a listing payload with an unexpected shape.
	ErrMalformedResponse = errors.New("malformed listing response")
)

// UpstreamError carries a non-success status returned by Reddit.
type UpstreamError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("upstream %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s returned status %d: %s", e.URL, e.StatusCode, body)
}

// FetchError wraps navigation, transport and decoding failures.
type FetchError struct {
	Source string
	Op     string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps an error from a ContentSource to the response status code.
// Upstream client and server errors are propagated; any other upstream status
// becomes 502.
func HTTPStatus(err error) int {
	var upstream *UpstreamError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNoPostID):
		return http.StatusBadRequest
	case errors.As(err, &upstream):
		if upstream.StatusCode < http.StatusBadRequest {
			return http.StatusBadGateway
		}
		return upstream.StatusCode
	default:
		return http.StatusInternalServerError
	}
}

// ErrorDetail is the human-readable message reported to clients. Upstream
// failures report the upstream body verbatim.
func ErrorDetail(err error) string {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		if upstream.Body != "" {
			return upstream.Body
		}
		return http.StatusText(upstream.StatusCode)
	}
	return err.Error()
}
