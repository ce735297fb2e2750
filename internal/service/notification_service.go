package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/events"
	"github.com/spec-kit/incident-service/internal/notification"
	"github.com/spec-kit/incident-service/internal/repository"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

// NotificationService turns incident events into push messages.
type NotificationService struct {
	dispatcher  events.Dispatcher
	users       repository.UserRepository
	gateway     notification.Gateway
	logger      *zap.Logger
	sendTimeout time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, gateway notification.Gateway, logger *zap.Logger, sendTimeout time.Duration) *NotificationService {
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	return &NotificationService{
		dispatcher:  dispatcher,
		users:       users,
		gateway:     gateway,
		logger:      logger,
		sendTimeout: sendTimeout,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIncidentAssigned, n.handle)
	n.dispatcher.Subscribe(events.EventIncidentStatusChanged, n.handle)
	n.dispatcher.Subscribe(events.EventIncidentReopened, n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	recipient, err := n.users.GetByID(ctx, event.RecipientID)
	if err != nil {
		return fmt.Errorf("load recipient %d: %w", event.RecipientID, err)
	}
	if !recipient.HasPushToken() {
		n.logger.Debug("recipient has no push token; skipping",
			zap.String("event_type", string(event.Type)),
			zap.Int64("incident_id", event.IncidentID),
			zap.Int64("recipient_id", recipient.ID))
		return nil
	}

	msg := buildMessage(event)
	msg.Token = *recipient.PushToken

	sendCtx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()
	if err := n.gateway.Send(sendCtx, msg); err != nil {
		return apperrors.NewUpstreamError("push delivery failed", err)
	}

	n.logger.Info("push notification sent",
		zap.String("event_type", string(event.Type)),
		zap.Int64("incident_id", event.IncidentID),
		zap.Int64("recipient_id", recipient.ID))
	return nil
}

func buildMessage(event events.Event) notification.Message {
	msg := notification.Message{Data: notification.IncidentData(event.IncidentID, string(event.NewStatus))}
	switch event.Type {
	case events.EventIncidentAssigned:
		msg.Title = "New incident assigned"
		msg.Body = fmt.Sprintf("You have been assigned: %s", event.Title)
	case events.EventIncidentReopened:
		msg.Title = "Incident reopened"
		msg.Body = fmt.Sprintf("%s was reopened and is back in progress", event.Title)
	default:
		msg.Title = "Incident status updated"
		msg.Body = fmt.Sprintf("%s is now %s", event.Title, event.NewStatus)
	}
	return msg
}
