package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/naccer/portal/backend/internal/config"
	"github.com/naccer/portal/backend/pkg/logger"
)

const (
	TaskTypeNotification = "notification:deliver"
	notificationQueue    = "notifications"
)

// NotificationProcessor delivers one notification.
type NotificationProcessor func(context.Context, *Notification) error

// Dispatcher defines how notifications leave the request path.
type Dispatcher interface {
	// Dispatch hands n off for delivery
	Dispatch(ctx context.Context, n *Notification) error
	// IsAsync returns true if delivery happens outside the caller's goroutine
	IsAsync() bool
	// Close gracefully shuts down the dispatcher
	Close() error
}

// NewDispatcher selects the Redis queue when enabled and reachable, and
// background goroutines otherwise.
func NewDispatcher(cfg *config.RedisConfig, processor NotificationProcessor) Dispatcher {
	if cfg.Enabled {
		queue, err := NewAsyncDispatcher(cfg)
		if err != nil {
			logger.Infof("[Dispatcher] Redis unavailable, falling back to goroutine mode: %v", err)
			return NewGoroutineDispatcher(processor)
		}
		logger.Infof("[Dispatcher] Async queue initialized with Redis at %s", cfg.Addr)
		return queue
	}
	logger.Infof("[Dispatcher] Goroutine dispatcher initialized (Redis disabled)")
	return NewGoroutineDispatcher(processor)
}

// AsyncDispatcher enqueues notifications on asynq (Redis-based).
type AsyncDispatcher struct {
	client *asynq.Client
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewAsyncDispatcher(cfg *config.RedisConfig) (*AsyncDispatcher, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	// verify the connection before committing to async mode
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncDispatcher{client: client}, nil
}

// Dispatch enqueues n. Notifications are never retried.
func (d *AsyncDispatcher) Dispatch(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	info, err := d.client.EnqueueContext(ctx, asynq.NewTask(TaskTypeNotification, payload),
		asynq.Queue(notificationQueue),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("template", string(n.Template)).Msg("[Dispatcher] notification enqueued")
	return nil
}

func (d *AsyncDispatcher) IsAsync() bool { return true }

func (d *AsyncDispatcher) Close() error { return d.client.Close() }

// GoroutineDispatcher delivers each notification on its own goroutine.
type GoroutineDispatcher struct {
	processor NotificationProcessor
}

func NewGoroutineDispatcher(processor NotificationProcessor) *GoroutineDispatcher {
	return &GoroutineDispatcher{processor: processor}
}

// Dispatch detaches from the request context so delivery outlives the request.
func (d *GoroutineDispatcher) Dispatch(ctx context.Context, n *Notification) error {
	if d.processor == nil {
		return errors.New("no notification processor set")
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Msg("[Dispatcher] notification processor panicked")
			}
		}()
		if err := d.processor(context.WithoutCancel(ctx), n); err != nil {
			logger.Warn().Err(err).Msg("[Dispatcher] notification processing failed")
		}
	}()
	return nil
}

func (d *GoroutineDispatcher) IsAsync() bool { return true }

func (d *GoroutineDispatcher) Close() error { return nil }

// InlineDispatcher delivers in the caller's goroutine. Used by the CLI and tests.
type InlineDispatcher struct {
	processor NotificationProcessor
}

func NewInlineDispatcher(processor NotificationProcessor) *InlineDispatcher {
	return &InlineDispatcher{processor: processor}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, n *Notification) error {
	if d.processor == nil {
		return errors.New("no notification processor set")
	}
	return d.processor(ctx, n)
}

func (d *InlineDispatcher) IsAsync() bool { return false }

func (d *InlineDispatcher) Close() error { return nil }
