package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/api"
	"trade-journal-go/internal/attachments"
	"trade-journal-go/internal/auth"
	"trade-journal-go/internal/config"
	"trade-journal-go/internal/logger"
	"trade-journal-go/internal/storage"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Open the trade store
	store, err := newStore(&cfg, log)
	if err != nil {
		log.Fatal("Failed to open trade store", zap.Error(err))
	}
	defer store.Close()

	// Wire external collaborators
	var verifier auth.Verifier
	if cfg.Auth.Enabled {
		verifier = newVerifier(&cfg, log)
		log.Info("Authentication enabled", zap.String("mode", cfg.Auth.Mode))
	}
	var uploader attachments.Uploader
	if cfg.Attachments.Enabled {
		uploader = attachments.NewHTTPUploader(
			cfg.Attachments.UploadURL,
			time.Duration(cfg.Attachments.TimeoutSeconds)*time.Second,
			log,
		)
		log.Info("Attachment uploads enabled", zap.String("upload_url", cfg.Attachments.UploadURL))
	}

	apiServer := api.NewServer(&cfg, store, verifier, uploader, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: apiServer.Engine,
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	go func() {
		log.Info("Starting trade journal server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	log.Info("Server has been shut down.")
}

// newStore opens the configured storage backend.
func newStore(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "file":
		return storage.NewFileStore(cfg.Storage.Path, log), nil
	case "sqlite":
		return storage.NewSQLiteStore(cfg.Storage.DSN, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newVerifier picks the identity collaborator from static configuration.
func newVerifier(cfg *config.Config, log *zap.Logger) auth.Verifier {
	if cfg.Auth.Mode == "remote" && cfg.Auth.VerifyURL != "" {
		return auth.NewRemoteVerifier(
			cfg.Auth.VerifyURL,
			time.Duration(cfg.Auth.TimeoutSeconds)*time.Second,
			log,
		)
	}
	return auth.StaticVerifier{}
}
