// Package server is the thin HTTP boundary over the route search: the
// search and closest-station endpoints, health and metrics. Authentication,
// sessions and rate limiting live in front of this service.
package server
