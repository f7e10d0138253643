// Package main is the entry point for the heatmap server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rfroumine/dream-heatmap/internal/api"
	"github.com/rfroumine/dream-heatmap/internal/cache"
	"github.com/rfroumine/dream-heatmap/internal/config"
	"github.com/rfroumine/dream-heatmap/internal/data/store"
	"github.com/rfroumine/dream-heatmap/internal/layout"
	"github.com/rfroumine/dream-heatmap/internal/render"
	"github.com/rfroumine/dream-heatmap/internal/service"
	"github.com/rfroumine/dream-heatmap/internal/watch"
	"github.com/rfroumine/dream-heatmap/pkg/colormap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting heatmap server on port %d", cfg.Server.Port)

	nanColor, err := colormap.ParseHex(cfg.Render.NaNColor)
	if err != nil {
		log.Fatalf("Invalid nan_color: %v", err)
	}

	// Cache manager and frame renderer are shared across all datasets.
	cacheManager, err := cache.NewManager(cache.Config{
		FrameCacheSizeMB: cfg.Cache.FrameSizeMB,
		FrameTTL:         time.Duration(cfg.Cache.FrameTTLMinutes) * time.Minute,
		QueryCacheSize:   cfg.Cache.QueryCacheSize,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	frameRenderer := render.NewFrameRenderer()

	layoutCfg := layout.Config{
		CellSize:  cfg.Render.CellSize,
		GapSize:   cfg.Render.GapSize,
		Padding:   cfg.Render.Padding,
		MaxWidth:  cfg.Render.MaxWidth,
		MaxHeight: cfg.Render.MaxHeight,
	}

	// Initialize dataset registry
	datasetIDs := cfg.Data.DatasetIDs()
	registry := api.NewDatasetRegistry(cfg.Data.DefaultDataset, datasetIDs, cfg.Server.Title)

	log.Printf("Initializing %d dataset(s), default: %s", len(datasetIDs), cfg.Data.DefaultDataset)

	var targets []watch.Target
	for _, datasetID := range datasetIDs {
		dsCfg := cfg.Data.Datasets[datasetID]

		ds, err := store.Open(dsCfg.Path)
		if err != nil {
			log.Fatalf("Failed to open dataset %q: %v", datasetID, err)
		}
		log.Printf("  [%s] Loaded from: %s (%dx%d)", datasetID, dsCfg.Path, ds.Matrix.NRows(), ds.Matrix.NCols())

		svc, err := service.NewHeatmapService(service.HeatmapServiceConfig{
			DatasetID:       datasetID,
			Dataset:         ds,
			Cache:           cacheManager,
			Renderer:        frameRenderer,
			Layout:          layoutCfg,
			DefaultColormap: cfg.Render.DefaultColormap,
			NaNColor:        nanColor,
		})
		if err != nil {
			log.Fatalf("Failed to initialize dataset %q: %v", datasetID, err)
		}

		registry.Register(datasetID, svc)
		targets = append(targets, watch.Target{Dir: dsCfg.Path, Service: svc})
	}

	// Watch dataset directories for rewrites
	if cfg.Data.Watch {
		watcher, err := watch.New(targets, cfg.Data.SettleWindow())
		if err != nil {
			log.Fatalf("Failed to start dataset watcher: %v", err)
		}
		defer watcher.Close()
		log.Printf("Watching %d dataset directories for changes", len(targets))
	}

	// Set up HTTP router
	router := api.NewRouter(api.RouterConfig{
		Registry:    registry,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
