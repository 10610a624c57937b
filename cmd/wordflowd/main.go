package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wordflow/wordflow/internal/engine/local"
	"github.com/wordflow/wordflow/internal/engined"
	"github.com/wordflow/wordflow/internal/engined/api/rest"
	"github.com/wordflow/wordflow/internal/engined/storage"
	"github.com/wordflow/wordflow/internal/shared/config"
	"github.com/wordflow/wordflow/internal/shared/logging"

	_ "github.com/wordflow/wordflow/pkg/textio"
	_ "github.com/wordflow/wordflow/pkg/wordcount"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadDaemon(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	store, err := newStore(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open job store", "error", err)
	}
	defer store.Close()

	engine := local.NewEngine(local.Config{Workers: cfg.Engine.Workers}, logger)
	service := engined.NewService(engine, store, cfg.Engine.TrackInterval, logger)

	if err := service.Restore(); err != nil {
		logger.Fatal("Failed to restore job records", "error", err)
	}

	api := rest.NewAPI(service, logger)
	server := rest.NewServer(cfg.REST, api, logger)

	go func() {
		logger.Info("Starting engine daemon",
			"addr", cfg.REST.Addr,
			"storage", cfg.Storage.Backend,
			"workers", cfg.Engine.Workers,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down daemon")

	// Give the server 30 seconds to finish serving ongoing requests.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Running jobs drain before the trackers stop, so final statuses are
	// usually persisted; anything still unfinished is reconciled by Restore
	// on the next boot.
	if err := engine.Close(); err != nil {
		logger.Error("Engine close failed", "error", err)
	}
	service.Close()

	logger.Info("Daemon stopped")
}

func newStore(cfg config.StorageConfig) (storage.JobRecordStore, error) {
	switch cfg.Backend {
	case "bolt":
		return storage.NewBoltStore(cfg.Path)
	case "memory":
		return storage.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
