// Command lead-rescore recomputes lead scores from the command line. It
// either re-scores one organization in bulk or sweeps stale snapshots
// across all tenants, without going through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"gymflow_backend/internal/events"
	"gymflow_backend/internal/leads/repository"
	"gymflow_backend/internal/leads/service"
	"gymflow_backend/platform/config"
	"gymflow_backend/platform/db"
	"gymflow_backend/platform/logger"
)

func main() {
	orgFlag := flag.String("org", "", "organization ID to re-score in bulk")
	staleFlag := flag.Duration("stale", 0, "re-score snapshots older than this (e.g. 24h); mutually exclusive with -org")
	batchFlag := flag.Int("batch", 500, "max leads per stale sweep")
	flag.Parse()

	if (*orgFlag == "") == (*staleFlag == 0) {
		fmt.Fprintln(os.Stderr, "exactly one of -org or -stale is required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect to database:", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := repository.NewPostgres(pool)
	svc := service.NewService(repo, log, events.NewInMemoryBus(log), nil, 0)

	if *orgFlag != "" {
		orgID, err := uuid.Parse(*orgFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid organization ID:", err)
			os.Exit(2)
		}

		result, err := svc.BulkUpdateScores(ctx, orgID, nil, repository.TriggeredByManual)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bulk re-score failed:", err)
			os.Exit(1)
		}
		fmt.Printf("re-scored %d leads, %d failed\n", result.Updated, result.Failed)
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", e.LeadID, e.Error)
		}
		if result.Failed > 0 {
			os.Exit(1)
		}
		return
	}

	processed, err := svc.RefreshStaleScores(ctx, time.Now().UTC().Add(-*staleFlag), *batchFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "stale sweep failed:", err)
		os.Exit(1)
	}
	fmt.Printf("re-scored %d stale leads\n", processed)
}
