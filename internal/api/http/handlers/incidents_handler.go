package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/api/dto"
	"github.com/spec-kit/incident-service/internal/service"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

// IncidentsHandler exposes the incident workflow endpoints.
type IncidentsHandler struct {
	service *service.IncidentService
}

// NewIncidentsHandler constructs handler.
func NewIncidentsHandler(incidentService *service.IncidentService) *IncidentsHandler {
	return &IncidentsHandler{service: incidentService}
}

// Create POST /api/incidents.
func (h *IncidentsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	incident, err := h.service.CreateIncident(c.UserContext(), actor, service.CreateIncidentInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewIncidentResponse(incident))
}

// List GET /api/incidents.
func (h *IncidentsHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	incidents, err := h.service.GetVisibleIncidents(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewIncidentList(incidents))
}

// Mine GET /api/incidents/my.
func (h *IncidentsHandler) Mine(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	incidents, err := h.service.GetMyIncidents(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewIncidentList(incidents))
}

// Assigned GET /api/incidents/assigned.
func (h *IncidentsHandler) Assigned(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	incidents, err := h.service.GetAssignedIncidents(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewIncidentList(incidents))
}

// Stats GET /api/incidents/stats.
func (h *IncidentsHandler) Stats(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	stats, err := h.service.GetStats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStatsResponse(stats))
}

// Assign PUT /api/incidents/:id/assign.
func (h *IncidentsHandler) Assign(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := incidentID(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.EngineerID == nil {
		return apperrors.NewValidationError("engineerId is required", map[string]any{"field": "engineerId"})
	}

	incident, err := h.service.AssignEngineer(c.UserContext(), actor, id, *req.EngineerID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewIncidentResponse(incident))
}

// UpdateStatus PUT|PATCH /api/incidents/:id/status.
func (h *IncidentsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := incidentID(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	incident, err := h.service.UpdateStatus(c.UserContext(), actor, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewIncidentResponse(incident))
}

// Reopen PUT /api/incidents/:id/reopen.
func (h *IncidentsHandler) Reopen(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := incidentID(c)
	if err != nil {
		return err
	}

	incident, err := h.service.ReopenIncident(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewIncidentResponse(incident))
}

func incidentID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid incident id", map[string]any{"id": raw})
	}
	return id, nil
}
