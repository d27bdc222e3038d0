// Package api hosts the HTTP surfaces of the two services.
//
// Comment service routes:
//   - GET /{id}/comments lists a post's comments.
//   - POST /add_comment stores a comment from form fields.
//   - GET /comment/{id} returns one comment or {}.
//   - GET /healthcheck returns the latest health report.
//   - GET /metrics for Prometheus scraping.
//
// Post service routes cover listing, submission, voting and the account
// flows. Browser-facing failures are queued as one-shot notices and the
// client is redirected back, readable via GET /notices.
package api
