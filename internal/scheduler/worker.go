package scheduler

import (
	"context"
	"fmt"
	"time"

	"gymflow_backend/internal/leads/repository"
	"gymflow_backend/internal/leads/service"
	"gymflow_backend/platform/config"
	"gymflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// decayStaleAfter is how long a factor snapshot may sit unrefreshed before
// the decay refresh re-scores its lead.
const decayStaleAfter = 24 * time.Hour

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	client *Client
	svc    *service.Service
	repo   repository.ScoreStore
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, svc *service.Service, repo repository.ScoreStore, client *Client, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		client: client,
		svc:    svc,
		repo:   repo,
		log:    log,
	}

	mux.HandleFunc(TaskLeadRescore, w.handleLeadRescore)
	mux.HandleFunc(TaskScoreDecayRefresh, w.handleScoreDecayRefresh)

	return w, nil
}

func (w *Worker) handleLeadRescore(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadRescorePayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	orgID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		return err
	}

	var reason *string
	if payload.Reason != "" {
		reason = &payload.Reason
	}

	_, err = w.svc.UpdateLeadScore(ctx, orgID, leadID, repository.TriggeredByAutomation, reason)
	return err
}

// handleScoreDecayRefresh fans out one rescore task per stale lead, so the
// re-scores run through the queue at worker concurrency instead of serially.
func (w *Worker) handleScoreDecayRefresh(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseScoreDecayRefreshPayload(task)
	if err != nil {
		return err
	}

	batchSize := payload.BatchSize
	if batchSize < 1 {
		batchSize = 100
	}

	refs, err := w.repo.ListStaleScoredLeads(ctx, time.Now().UTC().Add(-decayStaleAfter), batchSize)
	if err != nil {
		return err
	}

	for _, ref := range refs {
		err := w.client.EnqueueLeadRescore(ctx, LeadRescorePayload{
			LeadID:         ref.LeadID.String(),
			OrganizationID: ref.OrganizationID.String(),
			Reason:         "Scheduled decay refresh",
		})
		if err != nil {
			w.log.Warn("decay refresh enqueue failed", "leadId", ref.LeadID, "error", err)
		}
	}

	w.log.Info("decay refresh fanned out", "leads", len(refs))
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
