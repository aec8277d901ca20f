package scheduler

import (
	"context"
	"time"

	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/platform/config"
	"chatlead_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const followUpScanBatch = 500

// FollowUpDispatcher periodically scans for leads past their follow-up
// threshold and enqueues a reminder task for each one.
type FollowUpDispatcher struct {
	client    FollowUpScheduler
	repo      *repository.Repository
	log       *logger.Logger
	interval  time.Duration
	threshold time.Duration

	closer func() error
}

func NewFollowUpDispatcher(cfg config.SchedulerConfig, scoringCfg config.ScoringConfig, pool *pgxpool.Pool, log *logger.Logger) (*FollowUpDispatcher, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	interval := cfg.GetFollowUpScanInterval()
	if interval <= 0 {
		interval = time.Hour
	}

	threshold := scoringCfg.GetFollowUpThreshold()
	if threshold <= 0 {
		threshold = domain.DefaultFollowUpThreshold
	}

	return &FollowUpDispatcher{
		client:    client,
		repo:      repository.New(pool),
		log:       log,
		interval:  interval,
		threshold: threshold,
		closer:    client.Close,
	}, nil
}

func (d *FollowUpDispatcher) Close() error {
	if d == nil || d.closer == nil {
		return nil
	}
	return d.closer()
}

func (d *FollowUpDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || d.repo == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// Run one scan immediately on startup.
	d.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.scan(ctx)
		}
	}
}

func (d *FollowUpDispatcher) scan(ctx context.Context) {
	now := time.Now().UTC()
	cutoff := now.Add(-d.threshold)

	rows, err := d.repo.ListFollowUpCandidates(ctx, cutoff, followUpScanBatch)
	if err != nil {
		d.log.Warn("follow-up scan failed", "error", err)
		return
	}

	enqueued := 0
	for _, row := range rows {
		if !domain.NeedsFollowUp(row.Lifecycle(), row.CreatedAt, now, d.threshold) {
			continue
		}

		scheduled, err := d.client.ScheduleFollowUpReminder(ctx, FollowUpReminderPayload{
			LeadID:         row.ID.String(),
			OrganizationID: row.OrganizationID.String(),
		}, now)
		if err != nil {
			d.log.Warn("follow-up enqueue failed", "leadId", row.ID, "error", err)
			continue
		}
		if scheduled {
			enqueued++
		}
	}

	if enqueued > 0 {
		d.log.Info("follow-up reminders enqueued", "count", enqueued, "scanned", len(rows))
	}
}
