package worker_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/notification"
	"github.com/spec-kit/incident-service/internal/worker"
)

type captureGateway struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (g *captureGateway) Send(_ context.Context, msg notification.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, msg)
	return g.err
}

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping push worker test: TEST_REDIS_ADDR environment variable not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPushWorkerDeliversQueuedMessages(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	key := "test:push-worker:" + time.Now().Format("150405.000000")
	t.Cleanup(func() { client.Del(ctx, key) })

	queue := notification.NewRedisQueueGateway(client, key)
	gt.NoError(t, queue.Send(ctx, notification.Message{
		Token: "device-1",
		Title: "New incident assigned",
		Data:  notification.IncidentData(7, "IN_PROGRESS"),
	})).Required()

	target := &captureGateway{}
	w := worker.NewPushWorker(client, key, target, zap.NewNop(), time.Second)

	taken, err := w.ProcessOne(ctx)
	gt.NoError(t, err).Required()
	gt.Bool(t, taken).True()
	gt.A(t, target.sent).Length(1).Required()
	gt.Value(t, target.sent[0].Token).Equal("device-1")
	gt.Value(t, target.sent[0].Data["incidentId"]).Equal("7")
}

func TestPushWorkerDropsFailedDeliveries(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	key := "test:push-worker-fail:" + time.Now().Format("150405.000000")
	t.Cleanup(func() { client.Del(ctx, key) })

	gt.NoError(t, client.RPush(ctx, key, "not json").Err()).Required()
	queue := notification.NewRedisQueueGateway(client, key)
	gt.NoError(t, queue.Send(ctx, notification.Message{Token: "device-2", Title: "t"})).Required()

	target := &captureGateway{err: errors.New("unavailable")}
	w := worker.NewPushWorker(client, key, target, zap.NewNop(), time.Second)

	taken, err := w.ProcessOne(ctx)
	gt.NoError(t, err).Required()
	gt.Bool(t, taken).True()
	gt.A(t, target.sent).Length(0)

	taken, err = w.ProcessOne(ctx)
	gt.NoError(t, err).Required()
	gt.Bool(t, taken).True()
	gt.A(t, target.sent).Length(1)

	length, err := client.LLen(ctx, key).Result()
	gt.NoError(t, err).Required()
	gt.Value(t, length).Equal(int64(0))
}
