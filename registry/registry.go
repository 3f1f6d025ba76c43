package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"tra/routesearch/geodata"
	"tra/routesearch/sink"
)

var log = logrus.WithField("module", "registry")

// Station is one registry entry. Coordinate is nil when geocoding failed;
// such a station is still valid for schedule lookups by code but is skipped
// in distance work.
type Station struct {
	Code       string              `json:"code"`
	Name       string              `json:"name"`
	City       string              `json:"city"`
	Coordinate *geodata.Coordinate `json:"coordinate,omitempty"`
}

// StationLister enumerates a city's stations at the timetable provider.
type StationLister interface {
	ListStations(ctx context.Context, cityCode string) (map[string]string, error)
}

// Geocoder resolves an address to a coordinate.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (geodata.Coordinate, bool)
}

// Registry is the lazily built, disk-cached station map. Once populated it
// is read-only for the process lifetime.
type Registry struct {
	path     string
	lister   StationLister
	geocoder Geocoder
	net      *geodata.Network
	events   sink.Recorder

	mu       sync.Mutex
	stations map[string]Station
}

// New creates a registry backed by the given cache file and providers.
func New(path string, lister StationLister, geocoder Geocoder, net *geodata.Network, events sink.Recorder) *Registry {
	return &Registry{path: path, lister: lister, geocoder: geocoder, net: net, events: events}
}

// AllStations returns the full station map, building it on first use.
func (r *Registry) AllStations(ctx context.Context) map[string]Station {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stations != nil {
		return r.stations
	}
	if stations, ok := r.load(); ok {
		r.stations = stations
		return r.stations
	}
	r.stations = r.build(ctx)
	r.persist(r.stations)
	return r.stations
}

// Station looks up one entry by code.
func (r *Registry) Station(ctx context.Context, code string) (Station, bool) {
	st, ok := r.AllStations(ctx)[code]
	return st, ok
}

// Coordinate implements geodata.Locator.
func (r *Registry) Coordinate(ctx context.Context, code string) (geodata.Coordinate, bool) {
	st, ok := r.Station(ctx, code)
	if !ok || st.Coordinate == nil {
		return geodata.Coordinate{}, false
	}
	return *st.Coordinate, true
}

// StationsInCity filters the registry by a city-name prefix. The prefix is
// resolved through the city-code table first so the legacy 台 spelling
// matches registry entries stored under the canonical 臺 name.
func (r *Registry) StationsInCity(ctx context.Context, cityPrefix string) []Station {
	all := r.AllStations(ctx)
	code, hasCode := r.net.CityCode(cityPrefix)
	out := make([]Station, 0)
	for _, st := range all {
		if hasCode {
			if c, ok := r.net.CityCode(st.City); ok && c == code {
				out = append(out, st)
			}
			continue
		}
		if len(cityPrefix) > 0 && len(st.City) >= len(cityPrefix) && st.City[:len(cityPrefix)] == cityPrefix {
			out = append(out, st)
		}
	}
	// stable order for deterministic tie-breaks downstream
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ClosestStation scans candidates for the one nearest to target, skipping
// stations without a coordinate. Ties keep the first candidate encountered.
func ClosestStation(target geodata.Coordinate, candidates []Station) (Station, float64, bool) {
	var best Station
	bestDist := 0.0
	found := false
	for _, st := range candidates {
		if st.Coordinate == nil {
			continue
		}
		d := geodata.DistanceKm(target, *st.Coordinate)
		if !found || d < bestDist {
			best, bestDist, found = st, d, true
		}
	}
	return best, bestDist, found
}

func (r *Registry) load() (map[string]Station, bool) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, false
	}
	var stations map[string]Station
	if err := json.Unmarshal(data, &stations); err != nil || len(stations) == 0 {
		r.events.Record(fmt.Sprintf("station cache %s unusable, rebuilding: %v", r.path, err))
		return nil, false
	}
	return stations, true
}

func (r *Registry) build(ctx context.Context) map[string]Station {
	r.events.Record("station cache absent or invalid, rebuilding from provider")
	stations := make(map[string]Station)
	cities := r.net.Cities()
	for _, cityCode := range sortedKeys(cities) {
		cityName := cities[cityCode]
		listed, err := r.lister.ListStations(ctx, cityCode)
		if err != nil {
			log.Warnf("station list for %s (%s) failed: %v", cityName, cityCode, err)
			r.events.Record(fmt.Sprintf("station list for %s failed: %v", cityName, err))
			continue
		}
		for stationCode, name := range listed {
			st := Station{Code: stationCode, Name: name, City: cityName}
			if coord, ok := r.geocoder.Resolve(ctx, name+"車站"); ok {
				c := coord
				st.Coordinate = &c
			}
			stations[stationCode] = st
		}
	}
	log.Infof("station registry built: %d stations, %d geocoded", len(stations),
		lo.CountBy(lo.Values(stations), func(st Station) bool { return st.Coordinate != nil }))
	return stations
}

func (r *Registry) persist(stations map[string]Station) {
	data, err := json.MarshalIndent(stations, "", "  ")
	if err != nil {
		r.events.Record(fmt.Sprintf("station cache encode failed: %v", err))
		return
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		r.events.Record(fmt.Sprintf("station cache write to %s failed: %v", r.path, err))
		return
	}
	r.events.Record(fmt.Sprintf("station cache written to %s", r.path))
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
