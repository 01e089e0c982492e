package reddit

import (
	"fmt"
	"strings"
)

// Transcript renders a result as plain text suitable for reading aloud.
func Transcript(result FetchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Post Title: %s\n", result.Title)
	if result.Body != "" {
		fmt.Fprintf(&b, "\nPost Content:\n%s\n", result.Body)
	}
	if len(result.Comments) > 0 {
		b.WriteString("\nTop Comments:\n")
		for i, c := range result.Comments {
			fmt.Fprintf(&b, "\nComment %d by %s:\n%s\n", i+1, c.Author, c.Body)
		}
	}
	return b.String()
}
