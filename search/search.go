package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tra/routesearch/geodata"
	"tra/routesearch/registry"
	"tra/routesearch/sink"
	"tra/routesearch/timetable"
)

var log = logrus.WithField("module", "search")

var searchDuration = prometheus.NewSummaryVec(prometheus.SummaryOpts{
	Name: "route_search_duration_seconds",
	Help: "Wall time of route searches by outcome",
}, []string{"outcome"})

func init() {
	prometheus.MustRegister(searchDuration)
}

// Geocoder resolves addresses to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (geodata.Coordinate, bool)
}

// ScheduleClient returns the best single leg for a query, if any.
type ScheduleClient interface {
	BestLeg(ctx context.Context, start, end string, departure time.Time) (timetable.Leg, bool)
}

// StationIndex is the registry surface the orchestrator needs. Satisfied by
// *registry.Registry.
type StationIndex interface {
	AllStations(ctx context.Context) map[string]registry.Station
	StationsInCity(ctx context.Context, cityPrefix string) []registry.Station
	Station(ctx context.Context, code string) (registry.Station, bool)
	Coordinate(ctx context.Context, code string) (geodata.Coordinate, bool)
}

// FallbackScope selects the candidate set used when the destination's city
// filter yields no station with a coordinate.
type FallbackScope string

const (
	// FallbackFull scans the whole registry.
	FallbackFull FallbackScope = "full"
	// FallbackRegion scans only stations in the destination's region.
	FallbackRegion FallbackScope = "region"
)

// Options tunes a Searcher.
type Options struct {
	// ConcurrencyLimit caps in-flight timetable queries; the upstream is
	// rate limited. Zero means 4.
	ConcurrencyLimit int
	FallbackScope    FallbackScope
}

// Searcher is the route search orchestrator.
type Searcher struct {
	geocoder  Geocoder
	stations  StationIndex
	schedules ScheduleClient
	net       *geodata.Network
	events    sink.Recorder
	opts      Options
}

// New creates a Searcher over the given collaborators.
func New(geocoder Geocoder, stations StationIndex, schedules ScheduleClient, net *geodata.Network, events sink.Recorder, opts Options) *Searcher {
	if opts.ConcurrencyLimit <= 0 {
		opts.ConcurrencyLimit = 4
	}
	if opts.FallbackScope == "" {
		opts.FallbackScope = FallbackFull
	}
	return &Searcher{geocoder: geocoder, stations: stations, schedules: schedules, net: net, events: events, opts: opts}
}

// Search finds the fastest itinerary from the origin station to the station
// nearest the destination address, departing at the given local instant.
// It returns ErrUnresolvableDestination when the destination cannot be
// resolved and ErrNoRoute when every tier comes up empty.
func (s *Searcher) Search(ctx context.Context, originCode, originName, departureISO, destinationAddress string) (*RouteResult, error) {
	started := time.Now()
	departure, err := time.Parse(timetable.DatetimeLayout, normalizeDatetime(departureISO))
	if err != nil {
		return nil, fmt.Errorf("invalid departure datetime %q: %w", departureISO, err)
	}

	target, err := s.resolveTarget(ctx, destinationAddress)
	if err != nil {
		searchDuration.WithLabelValues("unresolvable").Observe(time.Since(started).Seconds())
		return nil, err
	}
	log.Infof("searching %s (%s) -> %s (%s) departing %s",
		originName, originCode, target.Name, target.Code, departure.Format(timetable.DatetimeLayout))

	names := s.nameTable(originCode, originName, target)
	candidates := s.runTiers(ctx, originCode, target.Code, departure, names)
	if len(candidates) == 0 {
		searchDuration.WithLabelValues("no_route").Observe(time.Since(started).Seconds())
		return nil, ErrNoRoute
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.duration < best.duration {
			best = c
		}
	}
	searchDuration.WithLabelValues("ok").Observe(time.Since(started).Seconds())
	return &RouteResult{
		StrategyLabel:        best.label,
		TotalDurationSeconds: int64(best.duration.Seconds()),
		LegsDescription:      best.descs,
		LegDetails:           best.legs,
		Origin:               Endpoint{Code: originCode, Name: originName},
		Destination:          Endpoint{Code: target.Code, Name: target.Name},
	}, nil
}

// ClosestStation resolves an address to the nearest station over the whole
// registry.
func (s *Searcher) ClosestStation(ctx context.Context, address string) (*NearestStation, error) {
	coord, ok := s.geocoder.Resolve(ctx, address)
	if !ok {
		return nil, ErrUnresolvableDestination
	}
	st, dist, ok := registry.ClosestStation(coord, sortedStations(s.stations.AllStations(ctx)))
	if !ok {
		return nil, ErrNoStation
	}
	return &NearestStation{
		Code:       st.Code,
		Name:       st.Name,
		DistanceKm: math.Round(dist*100) / 100,
	}, nil
}

// resolveTarget geocodes the destination address and picks the closest
// station, preferring stations in the address's city.
func (s *Searcher) resolveTarget(ctx context.Context, address string) (registry.Station, error) {
	coord, ok := s.geocoder.Resolve(ctx, address)
	if !ok {
		s.events.Record(fmt.Sprintf("destination %q could not be geocoded", address))
		return registry.Station{}, ErrUnresolvableDestination
	}

	candidates := s.stations.StationsInCity(ctx, cityPrefix(address))
	candidates = lo.Filter(candidates, func(st registry.Station, _ int) bool { return st.Coordinate != nil })
	if len(candidates) == 0 {
		candidates = s.fallbackCandidates(ctx, coord)
	}
	st, _, ok := registry.ClosestStation(coord, candidates)
	if !ok {
		s.events.Record(fmt.Sprintf("no station near destination %q", address))
		return registry.Station{}, ErrUnresolvableDestination
	}
	return st, nil
}

func (s *Searcher) fallbackCandidates(ctx context.Context, dest geodata.Coordinate) []registry.Station {
	all := sortedStations(s.stations.AllStations(ctx))
	if s.opts.FallbackScope != FallbackRegion {
		return all
	}
	hub, ok := s.net.NearestHubTo(ctx, dest, s.stations, "")
	if !ok {
		return all
	}
	destRegion, _ := s.net.RegionOfHub(hub)
	return lo.Filter(all, func(st registry.Station, _ int) bool {
		return s.net.RegionOf(ctx, st.Code, s.stations) == destRegion
	})
}

// runTiers executes the strategy state machine. The direct attempt and each
// junction hub's chained leg pair form one concurrent batch; every hub's
// second leg starts only once that hub's first leg has resolved. The
// sequential double-transfer fallback runs only when the batch recorded
// nothing.
func (s *Searcher) runTiers(ctx context.Context, origin, target string, departure time.Time, names map[string]string) []candidate {
	var (
		mu    sync.Mutex
		found []candidate
	)
	record := func(c candidate) {
		mu.Lock()
		found = append(found, c)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.ConcurrencyLimit)
	g.Go(func() error {
		s.tryDirect(gctx, origin, target, departure, names, record)
		return nil
	})
	for _, hub := range s.junctionHubCandidates(ctx, origin, target) {
		hub := hub
		g.Go(func() error {
			s.trySingleTransfer(gctx, origin, hub, target, departure, names, record)
			return nil
		})
	}
	_ = g.Wait()

	if len(found) == 0 {
		s.tryDoubleTransfer(ctx, origin, target, departure, names, record)
	}
	return found
}

func (s *Searcher) tryDirect(ctx context.Context, origin, target string, departure time.Time, names map[string]string, record func(candidate)) {
	leg, ok := s.schedules.BestLeg(ctx, origin, target, departure)
	if !ok {
		return
	}
	arrival, err := timetable.CorrectedArrival(departure, leg)
	if err != nil {
		log.Warnf("direct leg has malformed times (%s -> %s): %v", origin, target, err)
		return
	}
	// a train departing after midnight serves a request made late the
	// previous evening; the arrival must land after the requested departure
	for arrival.Before(departure) {
		arrival = arrival.AddDate(0, 0, 1)
	}
	record(candidate{
		label:    "direct",
		descs:    []string{fmt.Sprintf("Direct: %s -> %s", names[origin], names[target])},
		legs:     []timetable.Leg{leg},
		duration: arrival.Sub(departure),
	})
}

// junctionHubCandidates picks the single-transfer hubs for the origin and
// target's region pair. No hubs when either region is unknown, when both
// ends share a region, or when the pair has no junction entry.
func (s *Searcher) junctionHubCandidates(ctx context.Context, origin, target string) []string {
	originRegion := s.net.RegionOf(ctx, origin, s.stations)
	targetRegion := s.net.RegionOf(ctx, target, s.stations)
	if originRegion == geodata.RegionUnknown || targetRegion == geodata.RegionUnknown || originRegion == targetRegion {
		return nil
	}
	return lo.Filter(s.net.JunctionHubs(originRegion, targetRegion), func(hub string, _ int) bool {
		return hub != origin && hub != target
	})
}

func (s *Searcher) trySingleTransfer(ctx context.Context, origin, hub, target string, departure time.Time, names map[string]string, record func(candidate)) {
	leg1, ok := s.schedules.BestLeg(ctx, origin, hub, departure)
	if !ok {
		return
	}
	arrival1, err := timetable.CorrectedArrival(departure, leg1)
	if err != nil {
		log.Warnf("transfer leg 1 has malformed times (%s -> %s): %v", origin, hub, err)
		return
	}
	leg2, ok := s.schedules.BestLeg(ctx, hub, target, arrival1)
	if !ok {
		return
	}
	arrival2, err := timetable.CorrectedArrival(arrival1, leg2)
	if err != nil {
		log.Warnf("transfer leg 2 has malformed times (%s -> %s): %v", hub, target, err)
		return
	}
	record(candidate{
		label: fmt.Sprintf("single-transfer via %s", names[hub]),
		descs: []string{
			fmt.Sprintf("Leg 1: %s -> %s", names[origin], names[hub]),
			fmt.Sprintf("Leg 2: %s -> %s", names[hub], names[target]),
		},
		legs:     []timetable.Leg{leg1, leg2},
		duration: arrival2.Sub(departure),
	})
}

func (s *Searcher) tryDoubleTransfer(ctx context.Context, origin, target string, departure time.Time, names map[string]string, record func(candidate)) {
	startHub, ok := s.net.NearestHub(ctx, origin, s.stations)
	if !ok {
		return
	}
	destHub, ok := s.net.NearestHub(ctx, target, s.stations)
	if !ok || startHub == destHub {
		return
	}

	leg1, ok := s.schedules.BestLeg(ctx, origin, startHub, departure)
	if !ok {
		return
	}
	arrival1, err := timetable.CorrectedArrival(departure, leg1)
	if err != nil {
		return
	}
	leg2, ok := s.schedules.BestLeg(ctx, startHub, destHub, arrival1)
	if !ok {
		return
	}
	arrival2, err := timetable.CorrectedArrival(arrival1, leg2)
	if err != nil {
		return
	}
	leg3, ok := s.schedules.BestLeg(ctx, destHub, target, arrival2)
	if !ok {
		return
	}
	arrival3, err := timetable.CorrectedArrival(arrival2, leg3)
	if err != nil {
		return
	}
	record(candidate{
		label: fmt.Sprintf("double-transfer via %s→%s", s.name(startHub), s.name(destHub)),
		descs: []string{
			fmt.Sprintf("Leg 1: %s -> %s", names[origin], s.name(startHub)),
			fmt.Sprintf("Leg 2: %s -> %s", s.name(startHub), s.name(destHub)),
			fmt.Sprintf("Leg 3: %s -> %s", s.name(destHub), names[target]),
		},
		legs:     []timetable.Leg{leg1, leg2, leg3},
		duration: arrival3.Sub(departure),
	})
}

// nameTable seeds display names for every code a search may label: the major
// hubs, the caller-provided origin name and the resolved target.
func (s *Searcher) nameTable(originCode, originName string, target registry.Station) map[string]string {
	names := make(map[string]string, len(s.net.HubCodes())+2)
	for _, hub := range s.net.HubCodes() {
		if n, ok := s.net.HubName(hub); ok {
			names[hub] = n
		}
	}
	if originName != "" {
		names[originCode] = originName
	} else if _, ok := names[originCode]; !ok {
		names[originCode] = s.name(originCode)
	}
	names[target.Code] = target.Name
	return names
}

func (s *Searcher) name(code string) string {
	if n, ok := s.net.HubName(code); ok {
		return n
	}
	return "車站" + code
}

func cityPrefix(address string) string {
	runes := []rune(address)
	if len(runes) < 3 {
		return address
	}
	return string(runes[:3])
}

func normalizeDatetime(v string) string {
	// a minute-precision input gains seconds
	if len(v) == 16 {
		return v + ":00"
	}
	return v
}

func sortedStations(all map[string]registry.Station) []registry.Station {
	out := lo.Values(all)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
