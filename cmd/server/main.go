package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/unalkalkan/ReelPilot/internal/api"
	"github.com/unalkalkan/ReelPilot/internal/config"
	"github.com/unalkalkan/ReelPilot/internal/generation"
	"github.com/unalkalkan/ReelPilot/internal/health"
	"github.com/unalkalkan/ReelPilot/internal/packaging"
	"github.com/unalkalkan/ReelPilot/internal/provider"
	"github.com/unalkalkan/ReelPilot/internal/retry"
	"github.com/unalkalkan/ReelPilot/internal/storage"
	"github.com/unalkalkan/ReelPilot/internal/workflow"
	"github.com/unalkalkan/ReelPilot/pkg/types"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "config/dev.example.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Optional dotenv file holding the API key")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to read %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting ReelPilot Server v%s", version)
	log.Printf("Configuration loaded from: %s", *configPath)

	// Storage
	artifacts, err := storage.OpenArtifactStore(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create storage adapter: %v", err)
	}
	defer artifacts.Close()
	log.Printf("Storage adapter initialized: %s", cfg.Storage.Adapter)

	// Generation backend
	providerRegistry := provider.NewRegistry()
	factory, err := providerRegistry.Factory(cfg.Provider)
	if err != nil {
		log.Fatalf("Failed to initialize provider: %v", err)
	}
	clients := provider.NewClientHolder(cfg.Provider.APIKeyEnv, factory)
	defer clients.Close()
	log.Printf("Provider initialized: %s (credential from $%s)", cfg.Provider.Name, cfg.Provider.APIKeyEnv)

	generator := generation.NewService(clients, retry.FromConfig(cfg.Pipeline), cfg.Pipeline)

	opts := workflow.OptionsFromConfig(cfg)
	opts.Credentials = clients
	opts.Clipboard = artifacts
	sessions := api.NewSessionRegistry(generator, opts, cfg.Server.MaxSessions)
	defer sessions.CloseAll()

	packager := packaging.NewService(artifacts)

	healthHandler := health.NewHandler(version)
	healthHandler.Register("storage", health.StorageCheck(artifacts))
	healthHandler.Register("credentials", health.CredentialCheck(clients))
	healthHandler.Register("sessions", health.CapacityCheck(sessions.Count, cfg.Server.MaxSessions))

	handler := api.NewRouter(api.RouterOptions{
		Sessions:       api.NewSessionHandler(sessions, packager, artifacts),
		Health:         healthHandler,
		Info:           infoHandler(version, cfg, providerRegistry),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AccessLog:      os.Stdout,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// infoHandler returns basic server information
func infoHandler(version string, cfg *types.Config, registry *provider.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"name":               "ReelPilot",
			"version":            version,
			"storage_adapter":    cfg.Storage.Adapter,
			"provider":           cfg.Provider.Name,
			"providers":          registry.List(),
			"max_sessions":       cfg.Server.MaxSessions,
			"default_mode":       cfg.Session.Mode,
			"images_per_segment": cfg.Pipeline.ImagesPerSegment,
		})
	}
}
