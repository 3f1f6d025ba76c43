package timetable

import (
	"fmt"
	"time"
)

const clockLayout = "15:04"

// CorrectedArrival places a leg's clock times on the calendar date of the
// instant the leg was queried for, then rolls the arrival forward one day
// when it lands before the leg's own departure-of-day, i.e. the trip
// crosses midnight. Applied per leg, before the arrival feeds the next
// leg's query.
func CorrectedArrival(anchor time.Time, leg Leg) (time.Time, error) {
	dep, err := onDate(anchor, leg.DepartureTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("departure time: %w", err)
	}
	arr, err := onDate(anchor, leg.ArrivalTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("arrival time: %w", err)
	}
	if arr.Before(dep) {
		arr = arr.AddDate(0, 0, 1)
	}
	return arr, nil
}

func onDate(anchor time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := anchor.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, anchor.Location()), nil
}
