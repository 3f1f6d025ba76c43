package config

// ServerConfig contains the HTTP server configuration.
type ServerConfig struct {
	Port           int      `yaml:"port" validate:"gt=0"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// TimetableConfig contains the timetable provider configuration.
type TimetableConfig struct {
	QueryURL       string `yaml:"queryURL" validate:"required,url"`
	StationListURL string `yaml:"stationListURL" validate:"required,url"`
	Token          string `yaml:"token"`
	TimeoutMS      int    `yaml:"timeoutMS" validate:"gte=0"`
	CacheTTLMS     int    `yaml:"cacheTTLMS" validate:"gte=0"`
}

// GeocodingConfig contains the geocoding provider configuration.
type GeocodingConfig struct {
	BaseURL   string `yaml:"baseURL" validate:"required,url"`
	APIKey    string `yaml:"apiKey"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
}

// SearchConfig contains route-search tuning knobs.
type SearchConfig struct {
	// StationCacheFile is the durable station registry cache. The registry
	// is rebuilt wholesale when the file is absent or unparsable.
	StationCacheFile string `yaml:"stationCacheFile"`
	// ConcurrencyLimit caps concurrent timetable queries per search.
	ConcurrencyLimit int `yaml:"concurrencyLimit" validate:"gte=0"`
	// FallbackScope controls the candidate set used when the destination's
	// city filter yields no stations with coordinates: "full" scans the
	// whole registry, "region" only stations in the destination's region.
	FallbackScope string `yaml:"fallbackScope" validate:"omitempty,oneof=full region"`
	// EventLogFile receives the fire-and-forget event records.
	EventLogFile string `yaml:"eventLogFile"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Timetable TimetableConfig `yaml:"timetable"`
	Geocoding GeocodingConfig `yaml:"geocoding"`
	Search    SearchConfig    `yaml:"search"`
	LogLevel  string          `yaml:"logLevel"`
}
