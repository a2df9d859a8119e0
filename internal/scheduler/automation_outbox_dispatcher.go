package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gymflow_backend/internal/automation"
	"gymflow_backend/internal/automation/outbox"
	"gymflow_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// AutomationOutboxDispatcher claims due trigger records and posts them to the
// automations endpoint. Deliveries within one claim batch run concurrently,
// bounded so a slow endpoint cannot pile up goroutines.
type AutomationOutboxDispatcher struct {
	repo    *outbox.Repository
	client  *automation.Client
	log     *logger.Logger
	batch   int
	workers int
}

func NewAutomationOutboxDispatcher(pool *pgxpool.Pool, client *automation.Client, log *logger.Logger) *AutomationOutboxDispatcher {
	return &AutomationOutboxDispatcher{
		repo:    outbox.New(pool),
		client:  client,
		log:     log,
		batch:   50,
		workers: 8,
	}
}

func (d *AutomationOutboxDispatcher) Run(ctx context.Context) {
	if d == nil || d.repo == nil {
		return
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		records, err := d.repo.ClaimDue(ctx, d.batch)
		if err != nil {
			d.log.Warn("automation outbox claim failed", "error", err)
			continue
		}
		if len(records) == 0 {
			continue
		}

		d.deliver(ctx, records)
	}
}

func (d *AutomationOutboxDispatcher) deliver(ctx context.Context, records []outbox.Record) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			d.deliverOne(gctx, rec)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *AutomationOutboxDispatcher) deliverOne(ctx context.Context, rec outbox.Record) {
	var payload automation.TriggerPayload
	if err := unmarshalPayload(rec, &payload); err != nil {
		d.log.DispatchError(rec.ID.String(), rec.Attempts, err)
		_ = d.repo.Reschedule(ctx, rec, err)
		return
	}

	if err := d.client.Notify(ctx, payload); err != nil {
		d.log.DispatchError(rec.ID.String(), rec.Attempts, err)
		if rerr := d.repo.Reschedule(ctx, rec, err); rerr != nil {
			d.log.DatabaseError("outbox reschedule", rerr)
		}
		return
	}

	if err := d.repo.MarkSucceeded(ctx, rec.ID); err != nil {
		d.log.DatabaseError("outbox mark succeeded", err)
	}
}

func unmarshalPayload(rec outbox.Record, out *automation.TriggerPayload) error {
	if err := json.Unmarshal(rec.Payload, out); err != nil {
		return fmt.Errorf("decode outbox payload %s: %w", rec.ID, err)
	}
	return nil
}
