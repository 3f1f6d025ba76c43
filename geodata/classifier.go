package geodata

import "context"

// Locator resolves a station code to its coordinate. Implemented by the
// station registry.
type Locator interface {
	Coordinate(ctx context.Context, code string) (Coordinate, bool)
}

// NearestHub returns the major hub closest to the given station, excluding
// the station itself. Hubs without a resolvable coordinate are skipped.
func (n *Network) NearestHub(ctx context.Context, code string, loc Locator) (string, bool) {
	target, ok := loc.Coordinate(ctx, code)
	if !ok {
		return "", false
	}
	return n.NearestHubTo(ctx, target, loc, code)
}

// NearestHubTo returns the major hub closest to a coordinate, excluding the
// given code (empty excludes nothing). Hubs without a resolvable coordinate
// are skipped; ties keep the lowest hub code.
func (n *Network) NearestHubTo(ctx context.Context, target Coordinate, loc Locator, exclude string) (string, bool) {
	best := ""
	bestDist := 0.0
	for _, hub := range n.hubCodes {
		if hub == exclude {
			continue
		}
		coord, ok := loc.Coordinate(ctx, hub)
		if !ok {
			continue
		}
		if d := DistanceKm(target, coord); best == "" || d < bestDist {
			best, bestDist = hub, d
		}
	}
	return best, best != ""
}

// RegionOf classifies a station. Major hubs carry their static region; any
// other station takes the region of its nearest major hub. Stations without
// a coordinate come back as RegionUnknown.
func (n *Network) RegionOf(ctx context.Context, code string, loc Locator) Region {
	if region, ok := n.regionByHub[code]; ok {
		return region
	}
	hub, ok := n.NearestHub(ctx, code, loc)
	if !ok {
		return RegionUnknown
	}
	if region, ok := n.regionByHub[hub]; ok {
		return region
	}
	return RegionUnknown
}
