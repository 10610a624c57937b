package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/wordflow/wordflow/internal/engine/local"
	"github.com/wordflow/wordflow/internal/engine/remote"
	"github.com/wordflow/wordflow/internal/shared/logging"
	"github.com/wordflow/wordflow/pkg/dataflow"
	"github.com/wordflow/wordflow/pkg/driver"
)

func main() {
	var (
		input        = flag.String("input", "", "input files glob pattern")
		output       = flag.String("output", "", "output directory")
		partitions   = flag.Int("partitions", 4, "number of shuffle partitions")
		engineKind   = flag.String("engine", "local", "execution engine: local or remote")
		addr         = flag.String("addr", "http://localhost:8080", "engine daemon base URL (remote engine only)")
		workers      = flag.Int("workers", 0, "worker goroutines for the local engine (0 = one per CPU)")
		pollInterval = flag.Duration("poll-interval", 500*time.Millisecond, "status poll interval")
		logLevel     = flag.String("log-level", "info", "log level: debug, info, warn, error")
		logFormat    = flag.String("log-format", "text", "log format: text or json")
	)
	flag.Parse()

	logger := logging.New(*logLevel, *logFormat)

	if *input == "" {
		logger.Fatal("Input pattern must be specified using the -input flag")
	}
	if *output == "" {
		logger.Fatal("Output directory must be specified using the -output flag")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var engine dataflow.Engine
	switch *engineKind {
	case "local":
		engine = local.NewEngine(local.Config{Workers: *workers}, logger)
	case "remote":
		remoteEngine, err := remote.Connect(ctx, remote.Config{BaseURL: *addr}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to engine daemon", "error", err)
		}
		engine = remoteEngine
	default:
		logger.Fatal("Unknown engine, expected local or remote", "engine", *engineKind)
	}

	controller := driver.New(driver.Config{
		Input:        *input,
		Output:       *output,
		Partitions:   *partitions,
		PollInterval: *pollInterval,
	}, engine, logger)

	if _, err := controller.Run(ctx); err != nil {
		logger.Fatal("Job failed", "error", err)
	}
}
