package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"tra/routesearch/config"
	"tra/routesearch/search"
)

var log = logrus.WithField("module", "server")

// RouteAPI is the search surface the HTTP layer exposes.
type RouteAPI interface {
	Search(ctx context.Context, originCode, originName, departureISO, destinationAddress string) (*search.RouteResult, error)
	ClosestStation(ctx context.Context, address string) (*search.NearestStation, error)
}

// Server serves the route search API.
type Server struct {
	httpServer *http.Server
	api        RouteAPI
}

// New builds the HTTP server with routing, CORS and timeouts.
func New(cfg config.ServerConfig, api RouteAPI) *Server {
	s := &Server{api: api}

	r := mux.NewRouter()
	r.HandleFunc("/api/search-station", s.handleSearchStation).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/closest-station", s.handleClosestStation).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/health", handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start launches the listener in the background.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Infof("server listening on %s", s.httpServer.Addr)
}

// HandleGracefulShutdown blocks until SIGINT/SIGTERM and drains the server.
func (s *Server) HandleGracefulShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Warnf("server shutdown error: %v", err)
	} else {
		log.Info("server shut down successfully")
	}
}
