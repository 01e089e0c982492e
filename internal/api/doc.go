// Package api hosts the HTTP server, middleware, and the content route.
// Routes:
//   - GET /fetch_reddit_content?url=<post url>[&format=text] returns the post and
//     its top comments. 400 when no post identifier can be parsed from url,
//     the upstream status when Reddit rejects the request, 500 otherwise.
//     Errors are reported as {"detail": "..."}.
//   - GET /healthz and /readyz for liveness and readiness checks.
//   - GET /metrics for Prometheus scraping.
package api
