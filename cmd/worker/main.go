package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"marketplace/cmd"
	"marketplace/config"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Worker failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		once       bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.BoolVar(&once, "once", false, "Run a single reconciliation pass and exit")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Log, cfg.App.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := cmd.ConnectDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	components, err := cmd.NewComponents(cfg, db)
	if err != nil {
		return err
	}
	defer func() { _ = components.AuditSink.Close(context.Background()) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reconciler, err := components.NewReconciler(cfg)
	if err != nil {
		return fmt.Errorf("failed to create reconciler: %w", err)
	}

	if once {
		result, err := reconciler.RunOnce(ctx)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Reconciler.Enabled {
		g.Go(func() error { return reconciler.Run(gctx) })
	}

	if cfg.Worker.Enabled {
		worker, cleanup, err := components.NewOutboxWorker(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		logger.Info("Outbox worker started",
			zap.Duration("poll_interval", cfg.Worker.PollInterval),
			zap.Int("batch_size", cfg.Worker.BatchSize),
			zap.Int("max_retries", cfg.Worker.MaxRetries),
		)
		g.Go(func() error { return worker.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker exited with error: %w", err)
	}

	logger.Info("Worker stopped", zap.Any("reconciler", components.Metrics.Snapshot()))
	return nil
}
