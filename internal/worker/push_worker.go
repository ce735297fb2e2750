// Package worker drains queued push notifications and hands them to a gateway.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/notification"
)

const defaultPollTimeout = 5 * time.Second

// PushWorker pops messages enqueued by notification.RedisQueueGateway and
// delivers each one once. Failed deliveries are logged and dropped.
type PushWorker struct {
	client      *redis.Client
	key         string
	gateway     notification.Gateway
	logger      *zap.Logger
	pollTimeout time.Duration
	sendTimeout time.Duration
}

// NewPushWorker creates a worker reading from key.
func NewPushWorker(client *redis.Client, key string, gateway notification.Gateway, logger *zap.Logger, sendTimeout time.Duration) *PushWorker {
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	return &PushWorker{
		client:      client,
		key:         key,
		gateway:     gateway,
		logger:      logger,
		pollTimeout: defaultPollTimeout,
		sendTimeout: sendTimeout,
	}
}

// Run blocks until ctx is cancelled.
func (w *PushWorker) Run(ctx context.Context) error {
	w.logger.Info("push worker started", zap.String("queue", w.key))
	for {
		if ctx.Err() != nil {
			w.logger.Info("push worker stopped")
			return nil
		}
		if _, err := w.ProcessOne(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Warn("push queue read failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessOne waits up to the poll timeout for a message and delivers it.
// It reports whether a message was taken off the queue.
func (w *PushWorker) ProcessOne(ctx context.Context) (bool, error) {
	res, err := w.client.BLPop(ctx, w.pollTimeout, w.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	// BLPOP replies with [key, value].
	if len(res) != 2 {
		return false, nil
	}

	var msg notification.Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		w.logger.Warn("dropping malformed push message", zap.Error(err))
		return true, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	if err := w.gateway.Send(sendCtx, msg); err != nil {
		w.logger.Warn("push delivery failed",
			zap.String("title", msg.Title),
			zap.Any("data", msg.Data),
			zap.Error(err))
		return true, nil
	}
	w.logger.Debug("push delivered", zap.String("title", msg.Title))
	return true, nil
}
