package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `
timetable:
  queryURL: https://api.example.com/timetable/query
  stationListURL: https://api.example.com/timetable/stations
geocoding:
  baseURL: https://maps.example.com/geocode/json
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Server.Port)
	assert.Equal(t, 30000, cfg.Timetable.TimeoutMS)
	assert.Equal(t, 60000, cfg.Timetable.CacheTTLMS)
	assert.Equal(t, 30000, cfg.Geocoding.TimeoutMS)
	assert.Equal(t, 4, cfg.Search.ConcurrencyLimit)
	assert.Equal(t, "full", cfg.Search.FallbackScope)
	assert.Equal(t, "stations.json", cfg.Search.StationCacheFile)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
server:
  port: 8080
search:
  concurrencyLimit: 2
  fallbackScope: region
logLevel: debug
`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Search.ConcurrencyLimit)
	assert.Equal(t, "region", cfg.Search.FallbackScope)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadExpandsEnvironmentReferences(t *testing.T) {
	t.Setenv("TEST_TRAIN_TOKEN", "secret-token")
	cfg, err := Load(writeConfig(t, `
timetable:
  queryURL: https://api.example.com/timetable/query
  stationListURL: https://api.example.com/timetable/stations
  token: ${TEST_TRAIN_TOKEN}
geocoding:
  baseURL: https://maps.example.com/geocode/json
`))
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Timetable.Token)
}

func TestLoadRejectsMissingProviderURLs(t *testing.T) {
	_, err := Load(writeConfig(t, `
geocoding:
  baseURL: https://maps.example.com/geocode/json
`))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidFallbackScope(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
search:
  fallbackScope: nearest
`))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [not: a mapping"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}
