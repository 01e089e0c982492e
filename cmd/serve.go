package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-content-fetcher/internal/api"
)

const shutdownTimeout = 10 * time.Second

// newServeCmd creates the 'serve' subcommand which runs the HTTP service
// until SIGINT or SIGTERM.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP service",
		Long: `Starts the HTTP server exposing GET /fetch_reddit_content?url=...,
health checks and Prometheus metrics. The listen port comes from
server.port and can be overridden with the PORT environment variable.`,
		Args: cobra.NoArgs,
		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()
	cfg := appInstance.GetConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiServer := api.NewServer(appInstance.GetSource(), cfg, logger.Named("api"))
	srv := &http.Server{
		Addr:              listenAddr(cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}
	logger.Info("http server started", zap.String("addr", ln.Addr().String()), zap.String("source", appInstance.GetSource().Name()))
	return serveUntilDone(ctx, srv, ln, logger)
}

// serveUntilDone serves on ln until ctx is done, then drains in-flight
// requests. Request contexts are not derived from ctx, so a shutdown signal
// lets running fetches finish.
func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func listenAddr(port int) string {
	if env := os.Getenv("PORT"); env != "" {
		if p, err := strconv.Atoi(env); err == nil && p > 0 {
			port = p
		}
	}
	return fmt.Sprintf(":%d", port)
}
