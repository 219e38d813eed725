// Package api exposes the HTTP surface of the CV generation service: the
// generation endpoint, health probes, and the Prometheus scrape endpoint,
// assembled into a chi router with the full middleware chain.
package api
