package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatlead_backend/internal/events"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/scoring"
	"chatlead_backend/platform/config"
	"chatlead_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	repo    *repository.Repository
	scoring *scoring.Service
	bus     events.Bus
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, scoringSvc *scoring.Service, bus events.Bus, log *logger.Logger) (*Worker, error) {
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
		server:  server,
		mux:     mux,
		repo:    repository.New(pool),
		scoring: scoringSvc,
		bus:     bus,
		log:     log,
	}

	mux.HandleFunc(TaskFollowUpReminder, w.handleFollowUpReminder)
	mux.HandleFunc(TaskLeadRescore, w.handleLeadRescore)

	return w, nil
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

func (w *Worker) handleFollowUpReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpReminderPayload(task)
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

	lead, err := w.repo.GetByID(ctx, leadID, orgID)
	if err != nil {
		// Deleted between scan and delivery; nothing to remind.
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	// Converted or lost since the scan: reminder is stale.
	if lead.FollowUpStatus == "converted" || lead.FollowUpStatus == "lost" {
		return nil
	}

	if w.bus == nil {
		return nil
	}

	lastTouch := lead.CreatedAt
	if lead.LastContactedAt != nil {
		lastTouch = *lead.LastContactedAt
	}
	daysSince := int(time.Since(lastTouch).Hours() / 24)

	w.bus.Publish(ctx, events.FollowUpDue{
		BaseEvent:        events.NewBaseEvent(),
		LeadID:           lead.ID,
		OrganizationID:   lead.OrganizationID,
		FollowUpStatus:   lead.FollowUpStatus,
		DaysSinceContact: daysSince,
	})

	return nil
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

	result, err := w.scoring.Recalculate(ctx, leadID, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if w.bus != nil && result.Score != result.PreviousScore {
		w.bus.Publish(ctx, events.LeadScored{
			BaseEvent:      events.NewBaseEvent(),
			LeadID:         leadID,
			OrganizationID: orgID,
			Score:          result.Score,
			PreviousScore:  result.PreviousScore,
			Tier:           string(result.Tier),
		})
	}

	return nil
}
