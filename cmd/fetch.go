package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-content-fetcher/internal/reddit"
)

// newFetchCmd creates the 'fetch' subcommand which prints one post and its
// top comments without starting the server.
func newFetchCmd() *cobra.Command {
	var asText bool

	cmd := &cobra.Command{
		Use:   "fetch <post-url>",
		Short: "Fetches a single post and prints it",
		Long: `Fetches the post behind the given URL with the configured content source
and prints it as JSON, or as a plain-text transcript with --text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetchCommand(cmd, args[0], asText)
		},
	}
	cmd.Flags().BoolVar(&asText, "text", false, "print a plain-text transcript instead of JSON")
	return cmd
}

func runFetchCommand(cmd *cobra.Command, rawURL string, asText bool) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ref, ok := reddit.ParseReference(reddit.NormalizeURL(rawURL))
	if !ok {
		return fmt.Errorf("%w: %s", reddit.ErrNoPostID, rawURL)
	}

	result, err := appInstance.GetSource().Fetch(cmd.Context(), ref)
	if err != nil {
		appInstance.GetLogger().Warn("fetch failed", zap.String("post_id", ref.ID), zap.Error(err))
		return fmt.Errorf("fetch %s (status %d): %s", ref.ID, reddit.HTTPStatus(err), reddit.ErrorDetail(err))
	}

	out := cmd.OutOrStdout()
	if asText {
		_, err = fmt.Fprint(out, reddit.Transcript(result))
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
