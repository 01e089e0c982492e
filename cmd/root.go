// Package cmd defines and implements the CLI commands for the reddit-fetcher executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-content-fetcher/internal/app"
	"github.com/JakeFAU/reddit-content-fetcher/internal/config"
	"github.com/JakeFAU/reddit-content-fetcher/internal/reddit"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands will use.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	GetConfig() config.Config
	GetLogger() *zap.Logger
	GetSource() reddit.ContentSource
}

// newApp is the application factory. It's a variable so we can
// replace it with a mock factory in our tests.
var newApp = func(ctx context.Context, cfgPath string) (App, error) {
	return app.NewApp(ctx, cfgPath)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "reddit-fetcher",
		Short: "Fetches a Reddit post and its top comments.",
		Long: `reddit-fetcher resolves a Reddit post URL (standard, mobile or share link)
and returns the post title, body, author and score together with its top
level comments. It runs as an HTTP service or as a one-shot command.`,
		SilenceUsage: true,

		// Build the application once the flags are parsed and hand it to the
		// subcommand through the context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (YAML, JSON or TOML)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newFetchCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "reddit-fetcher: %v\n", err)
		os.Exit(1)
	}
}
