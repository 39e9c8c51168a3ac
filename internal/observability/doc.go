// Package observability provides structured logging and Prometheus metrics
// for the insurance platform API.
//
// This package implements:
//   - zap logger construction from configuration
//   - HTTP, session-binding and authorization counters
//   - The /metrics exposition handler
package observability
