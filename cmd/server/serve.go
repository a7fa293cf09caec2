package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prasenjit/spechub/internal/api"
	"github.com/prasenjit/spechub/internal/config"
	"github.com/prasenjit/spechub/internal/events"
	"github.com/prasenjit/spechub/internal/ingest"
	"github.com/prasenjit/spechub/internal/sdkgen"
	"github.com/prasenjit/spechub/internal/stats"
	"github.com/prasenjit/spechub/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SpecHub server",
	Long: `Starts the SpecHub backend server.

The server will:
  - Accept OpenAPI/Swagger spec uploads at /specs/upload
  - Serve documentation data and the try-it runner per record
  - Generate and package SDKs via the configured external generator

Configuration is loaded from config.yaml in the current directory,
or specify a custom config file with the --config flag.`,
	RunE: runServe,
}

var portFlag int

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Override server port")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

// snapshotConfig collects the effective settings (file, env, defaults) into
// the typed configuration.
func snapshotConfig() *config.Config {
	cfg := config.Default()

	cfg.Server.Port = viper.GetInt("server.port")
	cfg.Server.Host = viper.GetString("server.host")
	cfg.Storage.Type = viper.GetString("storage.type")
	cfg.Storage.DSN = viper.GetString("storage.dsn")
	cfg.Storage.UploadsDir = viper.GetString("storage.uploadsDir")
	cfg.Storage.SDKsDir = viper.GetString("storage.sdksDir")
	cfg.SDK.GeneratorBin = viper.GetString("sdk.generatorBin")
	cfg.SDK.Timeout = config.Duration(viper.GetDuration("sdk.timeout"))
	cfg.Events.MaxEvents = viper.GetInt("events.maxEvents")
	cfg.Logging.Level = viper.GetString("logging.level")
	cfg.Logging.Format = viper.GetString("logging.format")

	return cfg
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := snapshotConfig()
	if portFlag > 0 {
		cfg.Server.Port = portFlag
	}

	uploadsDir := resolvePath(cfg.Storage.UploadsDir)
	sdksDir := resolvePath(cfg.Storage.SDKsDir)

	// Ensure the artifact directories exist before anything touches them
	for _, dir := range []string{uploadsDir, sdksDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	log.Printf("Using uploads directory: %s", uploadsDir)
	log.Printf("Using sdks directory: %s", sdksDir)

	// Initialize storage
	var store storage.Storage
	var err error
	if cfg.Storage.Type == "sqlite" {
		dsn := resolvePath(cfg.Storage.DSN)
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err = storage.NewSQLiteStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
	} else {
		store = storage.NewMemoryStorage()
	}
	defer store.Close()

	workflow := ingest.NewWorkflow(store, uploadsDir)
	bridge := sdkgen.NewBridge(uploadsDir, sdksDir, cfg.SDK.Timeout.Std(), &sdkgen.ExecRunner{Bin: cfg.SDK.GeneratorBin})
	hub := events.NewHub(cfg.Events.MaxEvents)
	collector := stats.NewCollector()

	router := api.NewRouter(store, workflow, bridge, hub, collector, uploadsDir)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting SpecHub server on %s", addr)
		log.Printf("Spec API available at http://%s/specs/", addr)
		log.Printf("SDK API available at http://%s/sdk/", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	return nil
}

// resolvePath makes a relative path absolute against the working directory
func resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
