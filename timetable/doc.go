// Package timetable wraps the external fixed-timetable provider: station
// listing per city and best-leg queries between two stations at a departure
// instant. Upstream failures degrade to empty results; this is the sole
// failure boundary and it never retries on its own.
package timetable
