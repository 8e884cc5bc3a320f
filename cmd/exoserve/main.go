package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exodetect/internal/api"
	"exodetect/internal/cfg"
	"exodetect/internal/metrics"
	"exodetect/internal/model"
	"exodetect/internal/predict"
	"exodetect/internal/storage"
	"exodetect/internal/stream"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The artifact is mandatory: refuse to start rather than serve with a
	// partially initialized model.
	artifact, err := model.Load(c.ModelPath)
	if err != nil {
		log.Fatal().Err(err).Str("model_path", c.ModelPath).Msg("model artifact load failed")
	}
	log.Info().Str("model_path", c.ModelPath).Int("features", len(artifact.FeatureKeys)).Msg("model artifact loaded")

	m := metrics.New()
	if info, err := os.Stat(c.ModelPath); err == nil {
		m.ModelAge.Set(time.Since(info.ModTime()).Seconds())
	}

	registry := buildRegistry(c, artifact)
	sample := loadSample(c)
	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}
	hub := stream.NewHub()

	startMetricsServer(ctx, c)

	server := api.New(api.Config{
		ListenPort:   c.ListenPort,
		Timeout:      c.HTTPTimeout,
		HistoryLimit: c.HistoryLimit,
	}, registry, sample, store, hub, m)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("classifier server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx, server)
}

// buildRegistry loads every available engine variant. The lightweight
// engine always exists; the ensemble variant is registered only when its
// artifact file is present.
func buildRegistry(c cfg.Settings, artifact *model.Artifact) *predict.Registry {
	registry := predict.NewRegistry(c.DefaultEngine)
	registry.Register(predict.NewLightweight(artifact))

	if c.EnsemblePath != "" {
		if _, err := os.Stat(c.EnsemblePath); err == nil {
			ensemble, err := predict.LoadEnsemble(c.EnsemblePath)
			if err != nil {
				log.Warn().Err(err).Str("ensemble_path", c.EnsemblePath).Msg("ensemble artifact unusable, variant not registered")
			} else {
				registry.Register(ensemble)
			}
		} else {
			log.Info().Str("ensemble_path", c.EnsemblePath).Msg("ensemble artifact not found, variant not registered")
		}
	}

	log.Info().Strs("engines", registry.Names()).Str("default", c.DefaultEngine).Msg("inference engines ready")
	return registry
}

// loadSample loads the canned example record served on GET. Missing samples
// degrade to an empty map: the engine imputes every feature from medians.
func loadSample(c cfg.Settings) map[string]float64 {
	sample, err := api.LoadSample(c.SamplePath)
	if err != nil {
		log.Warn().Err(err).Str("sample_path", c.SamplePath).Msg("sample record unavailable, GET will serve an all-median record")
		return map[string]float64{}
	}
	return sample
}

// initializeStorage initializes storage if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath != "" {
		store, err := storage.New(c.DataPath)
		if err != nil {
			log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
			return nil
		}
		return store
	}
	return nil
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown waits for shutdown signals and drains the server
func waitForShutdown(ctx context.Context, server *api.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("shutdown complete")
}
