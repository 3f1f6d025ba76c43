// Package search runs the three-tier route search: direct travel, a single
// transfer through the junction hubs of the origin/destination region pair,
// and, only when both of those come up empty, a double transfer through the
// nearest major hubs. Candidates are ranked by total elapsed time from the
// requested departure instant.
package search
