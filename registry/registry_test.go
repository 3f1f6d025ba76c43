package registry

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tra/routesearch/geodata"
	"tra/routesearch/sink"
)

type fakeLister struct {
	calls  atomic.Int64
	cities map[string]map[string]string
}

func (f *fakeLister) ListStations(_ context.Context, cityCode string) (map[string]string, error) {
	f.calls.Add(1)
	stations, ok := f.cities[cityCode]
	if !ok {
		return nil, errors.New("city not served")
	}
	return stations, nil
}

type fakeGeocoder struct {
	coords map[string]geodata.Coordinate
}

func (f *fakeGeocoder) Resolve(_ context.Context, address string) (geodata.Coordinate, bool) {
	c, ok := f.coords[address]
	return c, ok
}

func testFixture(t *testing.T) (*Registry, *fakeLister, string) {
	t.Helper()
	lister := &fakeLister{cities: map[string]map[string]string{
		"A": {"1000": "臺北", "0980": "南港"},
		"U": {"7000": "花蓮"},
	}}
	geocoder := &fakeGeocoder{coords: map[string]geodata.Coordinate{
		"臺北車站": {Lat: 25.0478, Lng: 121.5170},
		"南港車站": {Lat: 25.0532, Lng: 121.6066},
		// 花蓮車站 deliberately not geocodable
	}}
	path := filepath.Join(t.TempDir(), "stations.json")
	return New(path, lister, geocoder, geodata.NewNetwork(), sink.Discard()), lister, path
}

func TestAllStationsBuildsAndPersists(t *testing.T) {
	r, lister, path := testFixture(t)

	all := r.AllStations(context.Background())

	// every city code was queried, failures tolerated
	assert.Equal(t, int64(19), lister.calls.Load())
	require.Contains(t, all, "1000")
	require.Contains(t, all, "7000")

	taipei := all["1000"]
	assert.Equal(t, "臺北", taipei.Name)
	assert.Equal(t, "臺北市", taipei.City)
	require.NotNil(t, taipei.Coordinate)
	assert.InDelta(t, 25.0478, taipei.Coordinate.Lat, 1e-9)

	// geocoding failure keeps the station, without a coordinate
	hualien := all["7000"]
	assert.Equal(t, "花蓮", hualien.Name)
	assert.Nil(t, hualien.Coordinate)

	// cache file written
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var persisted map[string]Station
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Len(t, persisted, 3)
}

func TestAllStationsBuildsOnlyOnce(t *testing.T) {
	r, lister, _ := testFixture(t)

	r.AllStations(context.Background())
	calls := lister.calls.Load()
	r.AllStations(context.Background())
	assert.Equal(t, calls, lister.calls.Load())
}

func TestAllStationsUsesCacheFileVerbatim(t *testing.T) {
	r, _, path := testFixture(t)
	r.AllStations(context.Background())

	// a second process with the same cache file never hits the provider
	lister2 := &fakeLister{}
	r2 := New(path, lister2, &fakeGeocoder{}, geodata.NewNetwork(), sink.Discard())
	all := r2.AllStations(context.Background())

	assert.Zero(t, lister2.calls.Load())
	assert.Len(t, all, 3)
}

func TestCorruptCacheFileTriggersRebuild(t *testing.T) {
	r, lister, path := testFixture(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	all := r.AllStations(context.Background())

	assert.Positive(t, lister.calls.Load())
	assert.Len(t, all, 3)
}

func TestStationsInCity(t *testing.T) {
	r, _, _ := testFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		prefix    string
		wantCodes []string
	}{
		{name: "canonical spelling", prefix: "臺北市", wantCodes: []string{"0980", "1000"}},
		{name: "legacy spelling maps to the same city", prefix: "台北市", wantCodes: []string{"0980", "1000"}},
		{name: "other city", prefix: "花蓮縣", wantCodes: []string{"7000"}},
		{name: "unknown city", prefix: "澎湖縣", wantCodes: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.StationsInCity(ctx, tt.prefix)
			codes := make([]string, 0, len(got))
			for _, st := range got {
				codes = append(codes, st.Code)
			}
			assert.Equal(t, tt.wantCodes, codes)
		})
	}
}

func TestCoordinate(t *testing.T) {
	r, _, _ := testFixture(t)
	ctx := context.Background()

	coord, ok := r.Coordinate(ctx, "1000")
	require.True(t, ok)
	assert.InDelta(t, 121.5170, coord.Lng, 1e-9)

	_, ok = r.Coordinate(ctx, "7000")
	assert.False(t, ok, "station without coordinate")
	_, ok = r.Coordinate(ctx, "9999")
	assert.False(t, ok, "unknown station")
}

func TestClosestStation(t *testing.T) {
	target := geodata.Coordinate{Lat: 25.05, Lng: 121.60}
	coord := func(lat, lng float64) *geodata.Coordinate {
		return &geodata.Coordinate{Lat: lat, Lng: lng}
	}

	t.Run("nearest wins, stations without coordinates skipped", func(t *testing.T) {
		st, dist, ok := ClosestStation(target, []Station{
			{Code: "7000", Name: "花蓮"},
			{Code: "1000", Name: "臺北", Coordinate: coord(25.0478, 121.5170)},
			{Code: "0980", Name: "南港", Coordinate: coord(25.0532, 121.6066)},
		})
		require.True(t, ok)
		assert.Equal(t, "0980", st.Code)
		assert.Less(t, dist, 1.0)
	})

	t.Run("tie keeps first encountered", func(t *testing.T) {
		st, _, ok := ClosestStation(target, []Station{
			{Code: "A", Coordinate: coord(25.06, 121.60)},
			{Code: "B", Coordinate: coord(25.06, 121.60)},
		})
		require.True(t, ok)
		assert.Equal(t, "A", st.Code)
	})

	t.Run("no candidate with coordinate", func(t *testing.T) {
		_, _, ok := ClosestStation(target, []Station{{Code: "7000"}})
		assert.False(t, ok)
	})
}
