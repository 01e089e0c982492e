package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-content-fetcher/internal/config"
	"github.com/JakeFAU/reddit-content-fetcher/internal/id/uuid"
	"github.com/JakeFAU/reddit-content-fetcher/internal/logging"
	"github.com/JakeFAU/reddit-content-fetcher/internal/metrics"
	"github.com/JakeFAU/reddit-content-fetcher/internal/reddit"
)

// FetchRoute is the single content route.
const FetchRoute = "/fetch_reddit_content"

// Server wires HTTP handlers to the content source.
type Server struct {
	router chi.Router
	source reddit.ContentSource
	cfg    config.Config
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(source reddit.ContentSource, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		source: source,
		cfg:    cfg,
		logger: logger,
	}
	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	metrics.Init()
	r := chi.NewRouter()
	r.Use(requestIDMiddleware(logger))
	r.Use(loggingMiddleware)
	r.Use(recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(timeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get(FetchRoute, s.fetchRedditContent)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "source": s.source.Name()})
}

func (s *Server) fetchRedditContent(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context(), s.logger)

	raw := r.URL.Query().Get("url")
	if strings.TrimSpace(raw) == "" {
		writeError(w, http.StatusBadRequest, "missing required query parameter: url")
		return
	}

	ref, ok := reddit.ParseReference(reddit.NormalizeURL(raw))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: %s", reddit.ErrNoPostID, raw))
		return
	}

	result, err := s.source.Fetch(r.Context(), ref)
	if err != nil {
		status := reddit.HTTPStatus(err)
		logger.Warn("fetch reddit content failed",
			zap.String("post_id", ref.ID),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeError(w, status, reddit.ErrorDetail(err))
		return
	}

	if r.URL.Query().Get("format") == "text" {
		writeText(w, http.StatusOK, reddit.Transcript(result))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func requestIDMiddleware(base *zap.Logger) func(http.Handler) http.Handler {
	ids := uuid.New()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = ids.MustNewID()
			}
			ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
			ctx = logging.IntoContext(ctx, base.With(zap.String("request_id", reqID)))
			w.Header().Set("X-Request-ID", reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		logging.FromContext(r.Context(), nil).Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.FromContext(r.Context(), nil).Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		th := http.TimeoutHandler(next, d, `{"detail":"request timed out"}`)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			th.ServeHTTP(&timeoutBodyWriter{ResponseWriter: w}, r)
		})
	}
}

// timeoutBodyWriter labels the TimeoutHandler's bare 503 body as JSON.
// Handlers that set their own Content-Type are left alone.
type timeoutBodyWriter struct {
	http.ResponseWriter
}

func (tw *timeoutBodyWriter) WriteHeader(code int) {
	if code == http.StatusServiceUnavailable && tw.Header().Get("Content-Type") == "" {
		tw.Header().Set("Content-Type", "application/json")
	}
	tw.ResponseWriter.WriteHeader(code)
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

type requestIDKey struct{}

// RequestID returns the identifier assigned to the current request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		zap.L().Error("write text failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
