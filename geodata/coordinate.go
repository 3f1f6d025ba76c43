package geodata

import "github.com/golang/geo/s2"

const earthRadiusKm = 6371.01

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm returns the great-circle distance between two coordinates.
func DistanceKm(a, b Coordinate) float64 {
	p := s2.LatLngFromDegrees(a.Lat, a.Lng)
	q := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p.Distance(q).Radians() * earthRadiusKm
}
