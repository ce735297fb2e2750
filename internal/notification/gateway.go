// Package notification delivers best-effort push messages to user devices.
package notification

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/persistence"
)

// Message is one push notification addressed to a device token.
type Message struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// IncidentData builds the data payload attached to incident notifications.
func IncidentData(incidentID int64, status string) map[string]string {
	return map[string]string{
		"incidentId": strconv.FormatInt(incidentID, 10),
		"status":     status,
	}
}

// Gateway delivers a message. Implementations make a single attempt.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
}

// LogGateway only logs messages. It is the default driver.
type LogGateway struct {
	logger *zap.Logger
}

// NewLogGateway creates a LogGateway.
func NewLogGateway(logger *zap.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(_ context.Context, msg Message) error {
	g.logger.Info("push notification",
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
		zap.Any("data", msg.Data))
	return nil
}

// NewGateway builds the gateway selected by cfg.Driver.
func NewGateway(cfg config.NotificationConfig, rdb *persistence.Redis, logger *zap.Logger) (Gateway, error) {
	switch cfg.Driver {
	case config.NotifyDriverLog, "":
		return NewLogGateway(logger), nil
	case config.NotifyDriverFCM:
		return NewFCMGateway(cfg.FCMEndpoint, cfg.FCMServerKey, cfg.SendTimeout), nil
	case config.NotifyDriverRedis:
		if rdb == nil || rdb.Client == nil {
			return nil, fmt.Errorf("redis client required for NOTIFY_DRIVER=redis")
		}
		return NewRedisQueueGateway(rdb.Client, cfg.QueueKey), nil
	}
	return nil, fmt.Errorf("unsupported notification driver %q", cfg.Driver)
}
