package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymflow_backend/internal/automation"
	"gymflow_backend/internal/events"
	"gymflow_backend/internal/leads/repository"
	"gymflow_backend/internal/leads/service"
	"gymflow_backend/internal/scheduler"
	"gymflow_backend/platform/config"
	"gymflow_backend/platform/db"
	"gymflow_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Worker-side scoring wiring (no HTTP handlers required). The config
	// cache is skipped here; re-scores are few enough to read straight
	// through to the database.
	repo := repository.NewPostgres(pool)
	svc := service.NewService(repo, log, eventBus, nil, 0)

	// Delivers staged scoring triggers to the automations endpoint.
	triggerClient := automation.NewClient(cfg, log)
	if triggerClient == nil {
		log.Warn("APP_URL not configured; automation trigger delivery disabled")
	}
	dispatcher := scheduler.NewAutomationOutboxDispatcher(pool, triggerClient, log)
	go dispatcher.Run(ctx)

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	// Periodically re-scores leads whose snapshots have gone stale so time
	// decay applies without fresh activity.
	go client.RunDecayRefreshLoop(ctx, cfg.GetDecayRefreshInterval(), cfg.GetDecayRefreshBatchSize())

	worker, err := scheduler.NewWorker(cfg, svc, repo, client, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
