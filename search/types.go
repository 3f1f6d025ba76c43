package search

import (
	"errors"
	"time"

	"tra/routesearch/timetable"
)

var (
	// ErrUnresolvableDestination means the destination address could not be
	// geocoded or matched to a station; no timetable query was attempted.
	ErrUnresolvableDestination = errors.New("destination could not be resolved to a station")
	// ErrNoRoute means every tier was exhausted with zero candidates.
	ErrNoRoute = errors.New("no route found")
	// ErrNoStation means no station with a coordinate was available.
	ErrNoStation = errors.New("no station found")
)

// Endpoint identifies one end of an itinerary.
type Endpoint struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// RouteResult is the ranked best itinerary of a search.
type RouteResult struct {
	StrategyLabel        string          `json:"type"`
	TotalDurationSeconds int64           `json:"duration"`
	LegsDescription      []string        `json:"legs_info"`
	LegDetails           []timetable.Leg `json:"details"`
	Origin               Endpoint        `json:"from"`
	Destination          Endpoint        `json:"to"`
}

// NearestStation is the result of the closest-station lookup.
type NearestStation struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance_km"`
}

// candidate is an itinerary recorded by one tier, ephemeral to a search.
type candidate struct {
	label    string
	descs    []string
	legs     []timetable.Leg
	duration time.Duration
}
