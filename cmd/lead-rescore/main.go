package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/scoring"
	"chatlead_backend/internal/scheduler"
	"chatlead_backend/platform/config"
	"chatlead_backend/platform/db"
	"chatlead_backend/platform/logger"
)

// lead-rescore recomputes every stored lead score with the current scoring
// model and weights. Run after a weight change or scoring version bump.
// With REDIS_URL configured the rescore is distributed through the task
// queue and executed by the scheduler workers; otherwise it runs inline.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead rescore backfill")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	repo := repository.New(pool)

	if cfg.GetRedisURL() != "" {
		enqueueRescores(ctx, cfg, repo, log)
		return
	}

	weights := domain.DefaultWeights()
	if override, ok := cfg.GetScoringWeights(); ok {
		custom, err := domain.NewWeights(override)
		if err != nil {
			log.Error("invalid scoring weights", "error", err)
			panic("invalid scoring weights: " + err.Error())
		}
		weights = custom
	}

	scorer := scoring.New(repo, weights, log)

	processed, changed, err := scorer.RecalculateAll(ctx)
	if err != nil {
		log.Error("rescore backfill aborted", "error", err, "processed", processed, "changed", changed)
		return
	}

	log.Info("rescore backfill complete", "processed", processed, "changed", changed)
}

// enqueueRescores fans the backfill out over the task queue, one rescore
// task per lead.
func enqueueRescores(ctx context.Context, cfg *config.Config, repo *repository.Repository, log *logger.Logger) {
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		panic("failed to initialize task client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	refs, err := repo.ListAllIDs(ctx)
	if err != nil {
		log.Error("failed to list leads", "error", err)
		return
	}

	enqueued := 0
	for _, ref := range refs {
		if ctx.Err() != nil {
			log.Warn("rescore enqueue interrupted", "enqueued", enqueued, "total", len(refs))
			return
		}

		err := client.EnqueueRescore(ctx, scheduler.LeadRescorePayload{
			LeadID:         ref.ID.String(),
			OrganizationID: ref.OrganizationID.String(),
		})
		if err != nil {
			log.Warn("rescore enqueue failed", "leadId", ref.ID, "error", err)
			continue
		}
		enqueued++
	}

	log.Info("rescore tasks enqueued", "enqueued", enqueued, "total", len(refs))
}
