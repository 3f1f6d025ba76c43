package timetable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"tra/routesearch/sink"
)

var log = logrus.WithField("module", "timetable")

var (
	queriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_queries_total",
		Help: "Timetable provider queries by outcome",
	}, []string{"outcome"})
	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_cache_hits_total",
		Help: "Best-leg lookups served from the response cache",
	})
)

func init() {
	prometheus.MustRegister(queriesTotal, cacheHitsTotal)
}

// DatetimeLayout is the provider's datetime format (local time, no zone).
const DatetimeLayout = "2006-01-02T15:04:05"

// Leg is one directional trip segment as returned by the provider. Clock
// times carry no date.
type Leg struct {
	TrainNo       string `json:"train_no,omitempty"`
	TrainType     string `json:"train_type,omitempty"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
}

// Client queries the timetable provider. A short-lived response cache
// absorbs the repeated identical queries a single search fans out.
type Client struct {
	httpClient *http.Client
	queryURL   string
	listURL    string
	token      string
	timeout    time.Duration
	cache      *gocache.Cache
	events     sink.Recorder
}

type cachedBest struct {
	leg Leg
	ok  bool
}

// New creates a timetable client.
func New(queryURL, listURL, token string, timeout, cacheTTL time.Duration, events sink.Recorder) *Client {
	return &Client{
		httpClient: &http.Client{},
		queryURL:   queryURL,
		listURL:    listURL,
		token:      token,
		timeout:    timeout,
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
		events:     events,
	}
}

// BestLeg returns the provider's first (best) leg for a start/end/departure
// query, or false when the provider fails or has nothing. The provider's own
// ranking is trusted; results are not re-sorted here.
func (c *Client) BestLeg(ctx context.Context, start, end string, departure time.Time) (Leg, bool) {
	key := fmt.Sprintf("%s|%s|%s", start, end, departure.Format(DatetimeLayout))
	if v, ok := c.cache.Get(key); ok {
		cacheHitsTotal.Inc()
		cached := v.(cachedBest)
		return cached.leg, cached.ok
	}

	legs, err := c.query(ctx, start, end, departure)
	if err != nil {
		queriesTotal.WithLabelValues("error").Inc()
		log.Warnf("timetable query failed (%s -> %s): %v", start, end, err)
		c.events.Record(fmt.Sprintf("timetable query failed (%s -> %s): %v", start, end, err))
		return Leg{}, false
	}
	if len(legs) == 0 {
		queriesTotal.WithLabelValues("empty").Inc()
		c.cache.SetDefault(key, cachedBest{})
		return Leg{}, false
	}
	queriesTotal.WithLabelValues("ok").Inc()
	best := legs[0]
	c.cache.SetDefault(key, cachedBest{leg: best, ok: true})
	return best, true
}

func (c *Client) query(ctx context.Context, start, end string, departure time.Time) ([]Leg, error) {
	payload := map[string]string{
		"start_station": start,
		"end_station":   end,
		"datetime":      departure.Format(DatetimeLayout),
	}
	var legs []Leg
	if err := c.post(ctx, c.queryURL, payload, &legs); err != nil {
		return nil, err
	}
	return legs, nil
}

// ListStations returns the provider's code -> name station map for one city.
func (c *Client) ListStations(ctx context.Context, cityCode string) (map[string]string, error) {
	payload := map[string][]string{"city_code": {cityCode}}
	var body map[string]map[string]string
	if err := c.post(ctx, c.listURL, payload, &body); err != nil {
		return nil, err
	}
	stations, ok := body[cityCode]
	if !ok {
		return nil, fmt.Errorf("no station list for city %s in response", cityCode)
	}
	return stations, nil
}

func (c *Client) post(ctx context.Context, url string, payload any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
