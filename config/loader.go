package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort             = 10000
	defaultTimeoutMS        = 30000
	defaultCacheTTLMS       = 60000
	defaultConcurrencyLimit = 4
)

// Load reads, validates and defaults the application configuration. When
// path is empty the usual locations are tried.
func Load(path string) (AppConfig, error) {
	paths := []string{path}
	if path == "" {
		paths = []string{"config.yml", "./config/config.yml"}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return AppConfig{}, err
	}
	// credentials are referenced as ${VAR} in the file
	data = []byte(os.ExpandEnv(string(data)))
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	applyDefaults(&cfg)
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Timetable.TimeoutMS == 0 {
		cfg.Timetable.TimeoutMS = defaultTimeoutMS
	}
	if cfg.Timetable.CacheTTLMS == 0 {
		cfg.Timetable.CacheTTLMS = defaultCacheTTLMS
	}
	if cfg.Geocoding.TimeoutMS == 0 {
		cfg.Geocoding.TimeoutMS = defaultTimeoutMS
	}
	if cfg.Search.ConcurrencyLimit == 0 {
		cfg.Search.ConcurrencyLimit = defaultConcurrencyLimit
	}
	if cfg.Search.FallbackScope == "" {
		cfg.Search.FallbackScope = "full"
	}
	if cfg.Search.StationCacheFile == "" {
		cfg.Search.StationCacheFile = "stations.json"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}
