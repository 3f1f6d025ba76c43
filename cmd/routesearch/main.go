package main

import (
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"tra/routesearch/config"
	"tra/routesearch/geocode"
	"tra/routesearch/geodata"
	"tra/routesearch/internal"
	"tra/routesearch/registry"
	"tra/routesearch/search"
	"tra/routesearch/server"
	"tra/routesearch/sink"
	"tra/routesearch/timetable"
)

func main() {
	configPath := flag.String("config", "", "config file path (default config.yml)")
	logLevel := flag.String("log-level", "", "log level [debug, info, warn, error, fatal, panic] (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	if err := internal.InitLogging(level); err != nil {
		logrus.Fatalf("%v", err)
	}

	events := sink.New(cfg.Search.EventLogFile)
	net := geodata.NewNetwork()
	geocoder := geocode.New(
		cfg.Geocoding.BaseURL,
		cfg.Geocoding.APIKey,
		time.Duration(cfg.Geocoding.TimeoutMS)*time.Millisecond,
		events,
	)
	schedules := timetable.New(
		cfg.Timetable.QueryURL,
		cfg.Timetable.StationListURL,
		cfg.Timetable.Token,
		time.Duration(cfg.Timetable.TimeoutMS)*time.Millisecond,
		time.Duration(cfg.Timetable.CacheTTLMS)*time.Millisecond,
		events,
	)
	stations := registry.New(cfg.Search.StationCacheFile, schedules, geocoder, net, events)
	searcher := search.New(geocoder, stations, schedules, net, events, search.Options{
		ConcurrencyLimit: cfg.Search.ConcurrencyLimit,
		FallbackScope:    search.FallbackScope(cfg.Search.FallbackScope),
	})

	srv := server.New(cfg.Server, searcher)
	srv.Start()
	srv.HandleGracefulShutdown()
}
