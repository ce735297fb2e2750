package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/incident-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIncidentAssigned      EventType = "incident.assigned"
	EventIncidentStatusChanged EventType = "incident.status_changed"
	EventIncidentReopened      EventType = "incident.reopened"
)

// Event is the "incident state changed" notice emitted after a write is persisted.
type Event struct {
	ID          string                `json:"id"`
	Type        EventType             `json:"type"`
	IncidentID  int64                 `json:"incident_id"`
	Title       string                `json:"title"`
	ActorID     int64                 `json:"actor_id"`
	OldStatus   domain.IncidentStatus `json:"old_status"`
	NewStatus   domain.IncidentStatus `json:"new_status"`
	RecipientID int64                 `json:"recipient_id"`
	Timestamp   time.Time             `json:"timestamp"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, incident *domain.Incident, actorID int64, oldStatus domain.IncidentStatus, recipientID int64) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		IncidentID:  incident.ID,
		Title:       incident.Title,
		ActorID:     actorID,
		OldStatus:   oldStatus,
		NewStatus:   incident.Status,
		RecipientID: recipientID,
		Timestamp:   time.Now().UTC(),
	}
}
