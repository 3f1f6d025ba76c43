// Package geocode resolves free-form addresses to coordinates through an
// external geocoding provider, with an idempotent in-process cache: each
// distinct address string triggers at most one outbound call per process
// lifetime, hit or miss.
package geocode
