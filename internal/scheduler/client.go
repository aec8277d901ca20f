package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"chatlead_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client *asynq.Client
	queue  string
}

// FollowUpScheduler enqueues follow-up reminder tasks for later delivery.
type FollowUpScheduler interface {
	ScheduleFollowUpReminder(ctx context.Context, payload FollowUpReminderPayload, runAt time.Time) (bool, error)
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleFollowUpReminder enqueues a reminder for delivery at runAt. It
// reports false when a reminder for this lead is already pending.
func (c *Client) ScheduleFollowUpReminder(ctx context.Context, payload FollowUpReminderPayload, runAt time.Time) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}

	task, err := NewFollowUpReminderTask(payload)
	if err != nil {
		return false, err
	}

	// TaskID keyed on the lead dedupes reminders across scan runs.
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(runAt),
		asynq.Queue(c.queue),
		asynq.TaskID("follow-up:"+payload.LeadID),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EnqueueRescore schedules an immediate rescore of a single lead.
func (c *Client) EnqueueRescore(ctx context.Context, payload LeadRescorePayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewLeadRescoreTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
