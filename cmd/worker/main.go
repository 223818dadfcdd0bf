// Package main runs a Temporal worker that executes fairness audit workflows.
package main

import (
	"flag"
	"fmt"
	"os"

	sdkworker "go.temporal.io/sdk/worker"

	"github.com/ahrav/go-fairness/internal/configuration"
	"github.com/ahrav/go-fairness/internal/worker"
	"github.com/ahrav/go-fairness/pkg/events"
)

var (
	configPath = flag.String("config", "", "Path to a JSON config file")
	taskQueue  = flag.String("task-queue", "", "Override the configured task queue")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := configuration.Load(*configPath)
	if err != nil {
		return err
	}
	if *taskQueue != "" {
		cfg.Temporal.TaskQueue = *taskQueue
	}

	logger := configuration.NewLogger(os.Stderr, cfg.Observability)
	if cfg.Store.Backend == configuration.StoreMemory {
		logger.Warn("memory artifact store only works with a single worker process")
	}

	blobs, closeStore, err := configuration.NewBlobStore(cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	c, err := worker.Dial(cfg.Temporal, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	w := sdkworker.New(c, cfg.Temporal.TaskQueue, sdkworker.Options{})
	worker.RegisterAll(w, blobs, events.NewLogEventSink(logger), logger)

	logger.Info("worker started", "task_queue", cfg.Temporal.TaskQueue, "namespace", cfg.Temporal.Namespace)
	if err := w.Run(sdkworker.InterruptCh()); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	return nil
}
