package geodata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLocator map[string]Coordinate

func (m mapLocator) Coordinate(_ context.Context, code string) (Coordinate, bool) {
	c, ok := m[code]
	return c, ok
}

func TestRegionOfHubIsDirect(t *testing.T) {
	n := NewNetwork()
	// a hub never needs coordinates
	region := n.RegionOf(context.Background(), "7000", mapLocator{})
	assert.Equal(t, RegionEast, region)
}

func TestRegionOfViaNearestHub(t *testing.T) {
	n := NewNetwork()
	loc := mapLocator{
		"2820": {Lat: 24.0029, Lng: 121.6045}, // 志學, close to 花蓮
		"7000": {Lat: 23.9927, Lng: 121.6011},
		"1000": {Lat: 25.0478, Lng: 121.5170},
		"4400": {Lat: 22.6394, Lng: 120.3020},
	}

	region := n.RegionOf(context.Background(), "2820", loc)
	assert.Equal(t, RegionEast, region)
}

func TestRegionOfWithoutCoordinateIsUnknown(t *testing.T) {
	n := NewNetwork()
	region := n.RegionOf(context.Background(), "2820", mapLocator{})
	assert.Equal(t, RegionUnknown, region)
}

func TestNearestHubExcludesSelf(t *testing.T) {
	n := NewNetwork()
	loc := mapLocator{
		"7000": {Lat: 23.9927, Lng: 121.6011},
		"6110": {Lat: 23.3310, Lng: 121.3120}, // 玉里, nearest other hub
		"1000": {Lat: 25.0478, Lng: 121.5170},
	}

	hub, ok := n.NearestHub(context.Background(), "7000", loc)
	require.True(t, ok)
	assert.Equal(t, "6110", hub)
}

func TestNearestHubTo(t *testing.T) {
	n := NewNetwork()
	loc := mapLocator{
		"7000": {Lat: 23.9927, Lng: 121.6011},
		"1000": {Lat: 25.0478, Lng: 121.5170},
	}
	target := Coordinate{Lat: 23.9020, Lng: 121.5400}

	hub, ok := n.NearestHubTo(context.Background(), target, loc, "")
	require.True(t, ok)
	assert.Equal(t, "7000", hub)

	hub, ok = n.NearestHubTo(context.Background(), target, loc, "7000")
	require.True(t, ok)
	assert.Equal(t, "1000", hub, "excluded hub falls out of the scan")

	_, ok = n.NearestHubTo(context.Background(), target, mapLocator{}, "")
	assert.False(t, ok)
}

func TestNearestHubSkipsHubsWithoutCoordinates(t *testing.T) {
	n := NewNetwork()
	loc := mapLocator{
		"2820": {Lat: 24.0029, Lng: 121.6045},
		"1000": {Lat: 25.0478, Lng: 121.5170},
	}

	hub, ok := n.NearestHub(context.Background(), "2820", loc)
	require.True(t, ok)
	assert.Equal(t, "1000", hub, "only hub with a coordinate wins by default")
}
