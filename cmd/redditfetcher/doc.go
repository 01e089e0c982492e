// Package main hosts the reddit-fetcher entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes GET /fetch_reddit_content?url=..., health checks and /metrics. The url
//     is normalized and parsed into a reddit.PostReference before any network work; URLs without a post identifier
//     are rejected with 400.
//   - Content sources: internal/source selects one reddit.ContentSource from source.kind. "api" reads the public
//     listing JSON through the Colly fetcher, "html" scrapes old.reddit.com with Colly and goquery, and "render"
//     drives a headless Chrome via chromedp with separate desktop and mobile layouts.
//   - Normalization: every source truncates top-level comments to the configured limit (max 10) and then drops the
//     ones without a body. Missing authors become "unknown" and missing scores 0.
//   - Configuration & plumbing: Viper populates config from a file and REDDIT_* env vars; zap provides structured
//     logging with request IDs; Prometheus counters and histograms cover HTTP traffic and each source fetch.
//
// Operational notes:
//   - Requests are independent. Each fetch builds its own collector or browser tab and nothing is cached.
//   - Upstream error statuses are returned to the caller with the upstream body as {"detail": ...}.
//   - The process reacts to SIGTERM for graceful drain; the listen port is overridable via PORT.
//
// Quick checklist:
//   - Run the service: go run ./cmd/redditfetcher serve --config config.yaml
//   - One-shot fetch: go run ./cmd/redditfetcher fetch https://www.reddit.com/r/golang/comments/abc123/ --text
//   - Switch source: REDDIT_SOURCE_KIND=render (needs Chrome on PATH) or REDDIT_SOURCE_KIND=html.
package main
