package dto

import (
	"time"

	"github.com/spec-kit/incident-service/internal/domain"
)

// CreateIncidentRequest payload.
type CreateIncidentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// AssignRequest payload. EngineerID is a pointer so a missing field can be told
// apart from zero.
type AssignRequest struct {
	EngineerID *int64 `json:"engineerId"`
}

// StatusRequest payload.
type StatusRequest struct {
	Status string `json:"status"`
}

// UserRef is the embedded reporter or engineer summary.
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// IncidentResponse is the public view of an incident.
type IncidentResponse struct {
	ID          int64                   `json:"id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Priority    domain.IncidentPriority `json:"priority"`
	Status      domain.IncidentStatus   `json:"status"`
	ReporterID  int64                   `json:"reporterId"`
	EngineerID  *int64                  `json:"engineerId"`
	CreatedAt   time.Time               `json:"createdAt"`
	Reporter    *UserRef                `json:"reporter,omitempty"`
	Engineer    *UserRef                `json:"engineer,omitempty"`
}

// StatsResponse uses the status names as keys.
type StatsResponse struct {
	Total      int64 `json:"total"`
	Open       int64 `json:"OPEN"`
	InProgress int64 `json:"IN_PROGRESS"`
	Resolved   int64 `json:"RESOLVED"`
	Closed     int64 `json:"CLOSED"`
}

// NewIncidentResponse maps a domain incident.
func NewIncidentResponse(incident *domain.Incident) IncidentResponse {
	resp := IncidentResponse{
		ID:          incident.ID,
		Title:       incident.Title,
		Description: incident.Description,
		Priority:    incident.Priority,
		Status:      incident.Status,
		ReporterID:  incident.ReporterID,
		EngineerID:  incident.EngineerID,
		CreatedAt:   incident.CreatedAt,
	}
	if incident.ReporterName != "" {
		resp.Reporter = &UserRef{ID: incident.ReporterID, Name: incident.ReporterName}
	}
	if incident.EngineerID != nil && incident.EngineerName != "" {
		resp.Engineer = &UserRef{ID: *incident.EngineerID, Name: incident.EngineerName}
	}
	return resp
}

// NewIncidentList maps a slice of incidents.
func NewIncidentList(incidents []domain.Incident) []IncidentResponse {
	out := make([]IncidentResponse, 0, len(incidents))
	for i := range incidents {
		out = append(out, NewIncidentResponse(&incidents[i]))
	}
	return out
}

// NewStatsResponse maps aggregated stats.
func NewStatsResponse(stats domain.Stats) StatsResponse {
	return StatsResponse{
		Total:      stats.Total,
		Open:       stats.Open,
		InProgress: stats.InProgress,
		Resolved:   stats.Resolved,
		Closed:     stats.Closed,
	}
}
