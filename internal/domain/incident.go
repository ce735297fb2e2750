package domain

import (
	"strings"
	"time"
)

// IncidentStatus enumerates lifecycle states for incidents.
type IncidentStatus string

const (
	StatusOpen       IncidentStatus = "OPEN"
	StatusInProgress IncidentStatus = "IN_PROGRESS"
	StatusResolved   IncidentStatus = "RESOLVED"
	StatusClosed     IncidentStatus = "CLOSED"
)

// Statuses lists the states in lifecycle order.
var Statuses = []IncidentStatus{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (IncidentStatus, bool) {
	candidate := IncidentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, status := range Statuses {
		if candidate == status {
			return status, true
		}
	}
	return "", false
}

// Valid reports whether s is one of the enumerated statuses.
func (s IncidentStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// IncidentPriority enumerates incident urgency.
type IncidentPriority string

const (
	PriorityLow      IncidentPriority = "LOW"
	PriorityMedium   IncidentPriority = "MEDIUM"
	PriorityHigh     IncidentPriority = "HIGH"
	PriorityCritical IncidentPriority = "CRITICAL"
)

// ParsePriority maps raw input to a priority, defaulting to MEDIUM when absent or invalid.
func ParsePriority(raw string) IncidentPriority {
	switch candidate := IncidentPriority(strings.ToUpper(strings.TrimSpace(raw))); candidate {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return candidate
	}
	return PriorityMedium
}

// Incident is the aggregate tracked through the lifecycle.
type Incident struct {
	ID          int64
	Title       string
	Description string
	Priority    IncidentPriority
	Status      IncidentStatus
	ReporterID  int64
	EngineerID  *int64
	CreatedAt   time.Time

	// Display names, filled by list queries only.
	ReporterName string
	EngineerName string
}

// Assigned reports whether an engineer currently owns the incident.
func (i *Incident) Assigned() bool {
	return i.EngineerID != nil
}

// OwnedBy reports whether engineerID is the assigned engineer.
func (i *Incident) OwnedBy(engineerID int64) bool {
	return i.EngineerID != nil && *i.EngineerID == engineerID
}
