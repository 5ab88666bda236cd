// Package http exposes the Plotline engine over a JSON HTTP API built on chi.
// Requests are validated against the embedded OpenAPI document (openapi.yaml)
// and turn diffs are streamed to subscribers as server-sent events.
package http
