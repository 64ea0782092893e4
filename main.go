package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/anemia-api/catalog"
	"github.com/giygas/anemia-api/config"
	"github.com/giygas/anemia-api/data"
	"github.com/giygas/anemia-api/logging"
	"github.com/giygas/anemia-api/scheduler"
	"github.com/giygas/anemia-api/server"
	"github.com/joho/godotenv"
)

func init() {
	// Get the working directory and read the env variables
	if err := godotenv.Load(); err != nil {
		// If failed, try loading from executable directory
		ex, err := os.Executable()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to get executable path:", err)
			os.Exit(1)
		}

		exPath := filepath.Dir(ex)
		if err := os.Chdir(exPath); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to change directory:", err)
			os.Exit(1)
		}

		// The environment alone is enough when no .env file exists
		_ = godotenv.Load()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		fmt.Fprintln(os.Stderr, "Expected environment variables:", config.GetEnvVars())
		os.Exit(1)
	}

	logging.InitLoggerWithOptions(logging.Options{
		Dir:            cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer func() {
		if err := logging.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to close log file:", err)
		}
	}()

	logging.Info("Configuration loaded", "env", cfg.Env.String(), "catalog_dir", cfg.CatalogDir, "reload_times", cfg.CatalogReloadTimes)

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	loader := catalog.NewLoader(cfg.CatalogDir, cfg.CatalogURL)
	catalogScheduler := scheduler.NewScheduler(dataContainer, loader, cfg.CatalogReloadTimes)
	if err := catalogScheduler.Start(); err != nil {
		logging.Error("Failed to start catalog scheduler", "error", err)
		os.Exit(1)
	}
	defer catalogScheduler.Stop()

	srv := server.NewServer(cfg, dataContainer)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		logging.Info("Received signal", "signal", sig.String())
	case err := <-serverErr:
		logging.Error("Server failed to start", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}
