package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"tra/routesearch/geodata"
	"tra/routesearch/sink"
)

var log = logrus.WithField("module", "geocode")

var requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "geocode_requests_total",
	Help: "Outbound geocoding requests by outcome",
}, []string{"outcome"})

func init() {
	prometheus.MustRegister(requestsTotal)
}

type entry struct {
	coord geodata.Coordinate
	ok    bool
}

// Client is a caching geocoding client. The cache is keyed by the exact
// address string, no normalization, and also remembers failed lookups.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	cache      *xsync.MapOf[string, entry]
	group      singleflight.Group
	events     sink.Recorder
}

// New creates a geocoding client against the given provider base URL.
func New(baseURL, apiKey string, timeout time.Duration, events sink.Recorder) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
		timeout:    timeout,
		cache:      xsync.NewMapOf[string, entry](),
		events:     events,
	}
}

// Resolve returns the coordinate for an address, or false when the provider
// fails or returns no result. Upstream failures are logged and recorded,
// never surfaced as errors.
func (c *Client) Resolve(ctx context.Context, address string) (geodata.Coordinate, bool) {
	if e, ok := c.cache.Load(address); ok {
		return e.coord, e.ok
	}
	v, _, _ := c.group.Do(address, func() (interface{}, error) {
		if e, ok := c.cache.Load(address); ok {
			return e, nil
		}
		e := c.fetch(ctx, address)
		c.cache.Store(address, e)
		return e, nil
	})
	e := v.(entry)
	return e.coord, e.ok
}

type providerResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location geodata.Coordinate `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (c *Client) fetch(ctx context.Context, address string) entry {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s?address=%s&key=%s", c.baseURL, url.QueryEscape(address), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		c.events.Record(fmt.Sprintf("geocoding request build failed for %q: %v", address, err))
		return entry{}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		c.events.Record(fmt.Sprintf("geocoding request failed for %q: %v", address, err))
		return entry{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		requestsTotal.WithLabelValues("error").Inc()
		c.events.Record(fmt.Sprintf("geocoding HTTP %d for %q", resp.StatusCode, address))
		return entry{}
	}
	var body providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		c.events.Record(fmt.Sprintf("geocoding response unreadable for %q: %v", address, err))
		return entry{}
	}
	if body.Status != "OK" || len(body.Results) == 0 {
		requestsTotal.WithLabelValues("zero_results").Inc()
		log.Warnf("geocoding status %q for %q", body.Status, address)
		c.events.Record(fmt.Sprintf("geocoding status %q for %q", body.Status, address))
		return entry{}
	}
	requestsTotal.WithLabelValues("ok").Inc()
	return entry{coord: body.Results[0].Geometry.Location, ok: true}
}
