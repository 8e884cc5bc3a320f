// Package api provides the HTTP serving surface for the KOI classifier:
// single-record and batch classification, the canned sample prediction,
// engine discovery, prediction history, and the live websocket feed.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"exodetect/internal/metrics"
	"exodetect/internal/predict"
	"exodetect/internal/storage"
	"exodetect/internal/stream"
)

// Config holds the server's runtime parameters.
type Config struct {
	ListenPort   int
	Timeout      time.Duration
	HistoryLimit int
}

// Server serves classification requests over HTTP. All referenced state
// (registry, sample record) is immutable after construction, so handlers
// share it without locking.
type Server struct {
	config   Config
	registry *predict.Registry
	sample   map[string]float64
	store    *storage.Store // nil disables the audit log and history endpoint
	hub      *stream.Hub    // nil disables the websocket feed
	metrics  *metrics.Metrics
	server   *http.Server
}

// New assembles the server and its routes.
func New(config Config, registry *predict.Registry, sample map[string]float64, store *storage.Store, hub *stream.Hub, m *metrics.Metrics) *Server {
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = 50
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	s := &Server{
		config:   config,
		registry: registry,
		sample:   sample,
		store:    store,
		hub:      hub,
		metrics:  m,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/exoplanet", s.handleExoplanet)
	mux.HandleFunc("/exoplanet/batch", s.handleBatch)
	mux.HandleFunc("/engines", s.handleEngines)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/health", s.handleHealth)
	if hub != nil {
		mux.Handle("/ws/predictions", hub)
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.ListenPort),
		Handler:      mux,
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting classifier server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
