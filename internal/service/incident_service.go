package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/events"
	"github.com/spec-kit/incident-service/internal/policy"
	"github.com/spec-kit/incident-service/internal/repository"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

// IncidentService owns the incident lifecycle: creation, assignment, status
// updates, reopening, role-scoped listing and stats.
type IncidentService struct {
	incidents  repository.IncidentRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	strict     bool
}

// IncidentDependencies bundles collaborators for the lifecycle service.
type IncidentDependencies struct {
	IncidentRepo repository.IncidentRepository
	UserRepo     repository.UserRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	// Strict enforces the directed transition table. When false, assignment is
	// accepted from any status and owners may set any non-OPEN status.
	Strict bool
}

// CreateIncidentInput describes incident creation payload.
type CreateIncidentInput struct {
	Title       string
	Description string
	Priority    string
}

// NewIncidentService constructs the service.
func NewIncidentService(deps IncidentDependencies) *IncidentService {
	return &IncidentService{
		incidents:  deps.IncidentRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		strict:     deps.Strict,
	}
}

// CreateIncident files a new OPEN incident on behalf of a reporter.
func (s *IncidentService) CreateIncident(ctx context.Context, actor domain.Actor, input CreateIncidentInput) (*domain.Incident, error) {
	if err := policy.AuthorizeRole(actor.Role, policy.ActionCreateIncident).Err(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	}

	reporter, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(s.logger, err, "reporter", map[string]any{"user_id": actor.ID})
	}
	if reporter.Role != domain.RoleReporter {
		return nil, apperrors.NewForbidden("only reporters may create incidents")
	}

	incident := &domain.Incident{
		Title:        title,
		Description:  description,
		Priority:     domain.ParsePriority(input.Priority),
		Status:       domain.StatusOpen,
		ReporterID:   actor.ID,
		ReporterName: reporter.Name,
	}
	if err := s.incidents.Create(ctx, incident); err != nil {
		return nil, storeFailure(s.logger, err, "create incident")
	}

	s.logger.Info("incident created",
		zap.Int64("incident_id", incident.ID),
		zap.Int64("actor_id", actor.ID),
		zap.String("priority", string(incident.Priority)))
	return incident, nil
}

// AssignEngineer assigns engineerID and moves the incident to IN_PROGRESS.
func (s *IncidentService) AssignEngineer(ctx context.Context, actor domain.Actor, incidentID, engineerID int64) (*domain.Incident, error) {
	if err := policy.AuthorizeRole(actor.Role, policy.ActionAssignEngineer).Err(); err != nil {
		return nil, err
	}
	if engineerID <= 0 {
		return nil, apperrors.NewValidationError("engineerId is required", map[string]any{"field": "engineerId"})
	}

	engineer, err := s.users.GetByID(ctx, engineerID)
	if err != nil {
		return nil, notFoundOr(s.logger, err, "engineer", map[string]any{"engineer_id": engineerID})
	}
	if engineer.Role != domain.RoleEngineer {
		return nil, apperrors.NewValidationError("assignee is not an engineer",
			map[string]any{"engineer_id": engineerID, "role": engineer.Role})
	}

	current, err := s.loadIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	from := s.assignableStatuses()
	if !containsStatus(from, current.Status) {
		return nil, apperrors.NewConflict(
			fmt.Sprintf("incident is %s; reopen it before assigning", current.Status),
			map[string]any{"incident_id": incidentID, "status": current.Status})
	}

	updated, err := s.incidents.Assign(ctx, repository.AssignCommand{
		IncidentID:   incidentID,
		EngineerID:   engineerID,
		FromStatuses: from,
	})
	if err != nil {
		return nil, s.classifyWriteFailure(ctx, err, incidentID, "assign incident")
	}
	updated.EngineerName = engineer.Name

	s.logger.Info("incident assigned",
		zap.Int64("incident_id", incidentID),
		zap.Int64("actor_id", actor.ID),
		zap.Int64("engineer_id", engineerID),
		zap.String("old_status", string(current.Status)))
	s.publish(ctx, events.NewEvent(events.EventIncidentAssigned, updated, actor.ID, current.Status, engineerID))
	return updated, nil
}

// UpdateStatus lets the assigned engineer move their incident along the lifecycle.
func (s *IncidentService) UpdateStatus(ctx context.Context, actor domain.Actor, incidentID int64, rawStatus string) (*domain.Incident, error) {
	if err := policy.AuthorizeRole(actor.Role, policy.ActionUpdateStatus).Err(); err != nil {
		return nil, err
	}
	next, ok := domain.ParseStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationError("invalid status",
			map[string]any{"status": rawStatus, "allowed": domain.Statuses})
	}

	current, err := s.loadIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	decision := policy.Authorize(policy.Request{
		Role:      actor.Role,
		Action:    policy.ActionUpdateStatus,
		Ownership: policy.EngineerOwnership(current, actor.ID),
	})
	if err := decision.Err(); err != nil {
		return nil, err
	}
	if err := s.checkTransition(current.Status, next); err != nil {
		return nil, err
	}

	updated, err := s.incidents.SetStatus(ctx, repository.StatusCommand{
		IncidentID:         incidentID,
		ExpectedEngineerID: actor.ID,
		ExpectedStatus:     current.Status,
		NewStatus:          next,
	})
	if err != nil {
		return nil, s.classifyStatusFailure(ctx, err, actor, incidentID)
	}

	s.logger.Info("incident status updated",
		zap.Int64("incident_id", incidentID),
		zap.Int64("actor_id", actor.ID),
		zap.String("old_status", string(current.Status)),
		zap.String("new_status", string(next)))
	s.publish(ctx, events.NewEvent(events.EventIncidentStatusChanged, updated, actor.ID, current.Status, updated.ReporterID))
	return updated, nil
}

// ReopenIncident returns a RESOLVED or CLOSED incident to IN_PROGRESS, keeping
// its engineer.
func (s *IncidentService) ReopenIncident(ctx context.Context, actor domain.Actor, incidentID int64) (*domain.Incident, error) {
	if err := policy.AuthorizeRole(actor.Role, policy.ActionReopenIncident).Err(); err != nil {
		return nil, err
	}

	current, err := s.loadIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.StatusResolved && current.Status != domain.StatusClosed {
		return nil, apperrors.NewConflict(
			fmt.Sprintf("only RESOLVED or CLOSED incidents can be reopened; incident is %s", current.Status),
			map[string]any{"incident_id": incidentID, "status": current.Status})
	}
	if !current.Assigned() {
		return nil, apperrors.NewConflict("incident has no engineer to hand it back to",
			map[string]any{"incident_id": incidentID})
	}

	updated, err := s.incidents.SetStatus(ctx, repository.StatusCommand{
		IncidentID:         incidentID,
		ExpectedEngineerID: *current.EngineerID,
		ExpectedStatus:     current.Status,
		NewStatus:          domain.StatusInProgress,
	})
	if err != nil {
		return nil, s.classifyWriteFailure(ctx, err, incidentID, "reopen incident")
	}

	s.logger.Info("incident reopened",
		zap.Int64("incident_id", incidentID),
		zap.Int64("actor_id", actor.ID),
		zap.String("old_status", string(current.Status)))
	s.publish(ctx, events.NewEvent(events.EventIncidentReopened, updated, actor.ID, current.Status, *updated.EngineerID))
	return updated, nil
}

// GetVisibleIncidents lists what the actor's role may see, newest first.
func (s *IncidentService) GetVisibleIncidents(ctx context.Context, actor domain.Actor) ([]domain.Incident, error) {
	return s.listScoped(ctx, actor, policy.ActionListIncidents)
}

// GetMyIncidents lists the reporter's own incidents.
func (s *IncidentService) GetMyIncidents(ctx context.Context, actor domain.Actor) ([]domain.Incident, error) {
	return s.listScoped(ctx, actor, policy.ActionGetMyIncidents)
}

// GetAssignedIncidents lists the engineer's assignments.
func (s *IncidentService) GetAssignedIncidents(ctx context.Context, actor domain.Actor) ([]domain.Incident, error) {
	return s.listScoped(ctx, actor, policy.ActionGetAssignedIncidents)
}

// GetStats counts every incident per status.
func (s *IncidentService) GetStats(ctx context.Context, actor domain.Actor) (domain.Stats, error) {
	if err := policy.AuthorizeRole(actor.Role, policy.ActionGetStats).Err(); err != nil {
		return domain.Stats{}, err
	}

	all, err := s.incidents.List(ctx, repository.IncidentFilter{})
	if err != nil {
		return domain.Stats{}, storeFailure(s.logger, err, "list incidents for stats")
	}

	stats := Aggregate(all)
	if stats.Unrecognized > 0 {
		s.logger.Error("incidents with unrecognized status",
			zap.Int64("count", stats.Unrecognized),
			zap.Int64("total", stats.Total))
	}
	return stats, nil
}

func (s *IncidentService) listScoped(ctx context.Context, actor domain.Actor, action policy.Action) ([]domain.Incident, error) {
	decision := policy.AuthorizeRole(actor.Role, action)
	if err := decision.Err(); err != nil {
		return nil, err
	}

	filter := repository.IncidentFilter{}
	switch decision.Scope {
	case policy.ScopeAll:
	case policy.ScopeReported:
		filter.ReporterID = &actor.ID
	case policy.ScopeAssigned:
		filter.EngineerID = &actor.ID
	default:
		return nil, apperrors.NewForbidden("no incident visibility for role")
	}

	incidents, err := s.incidents.List(ctx, filter)
	if err != nil {
		return nil, storeFailure(s.logger, err, "list incidents")
	}
	return incidents, nil
}

func (s *IncidentService) loadIncident(ctx context.Context, incidentID int64) (*domain.Incident, error) {
	if incidentID <= 0 {
		return nil, apperrors.NewValidationError("invalid incident id", map[string]any{"incident_id": incidentID})
	}
	incident, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		return nil, notFoundOr(s.logger, err, "incident", map[string]any{"incident_id": incidentID})
	}
	return incident, nil
}

func (s *IncidentService) assignableStatuses() []domain.IncidentStatus {
	if s.strict {
		return []domain.IncidentStatus{domain.StatusOpen, domain.StatusInProgress}
	}
	return domain.Statuses
}

// checkTransition validates an engineer-driven status change.
func (s *IncidentService) checkTransition(from, to domain.IncidentStatus) error {
	details := map[string]any{"from": from, "to": to}
	if to == domain.StatusOpen {
		return apperrors.NewConflict("an incident cannot be moved back to OPEN", details)
	}
	if !s.strict {
		return nil
	}
	switch {
	case from == domain.StatusInProgress && to == domain.StatusResolved:
		return nil
	case from == domain.StatusResolved && to == domain.StatusClosed:
		return nil
	}
	return apperrors.NewConflict(fmt.Sprintf("cannot move incident from %s to %s", from, to), details)
}

// classifyWriteFailure explains a conditional write that matched no row.
func (s *IncidentService) classifyWriteFailure(ctx context.Context, err error, incidentID int64, op string) error {
	if !errors.Is(err, repository.ErrStale) && !errors.Is(err, repository.ErrNotFound) {
		return storeFailure(s.logger, err, op)
	}
	latest, loadErr := s.loadIncident(ctx, incidentID)
	if loadErr != nil {
		return loadErr
	}
	return apperrors.NewConflict("incident changed concurrently; retry",
		map[string]any{"incident_id": incidentID, "status": latest.Status})
}

func (s *IncidentService) classifyStatusFailure(ctx context.Context, err error, actor domain.Actor, incidentID int64) error {
	if !errors.Is(err, repository.ErrStale) && !errors.Is(err, repository.ErrNotFound) {
		return storeFailure(s.logger, err, "set incident status")
	}
	latest, loadErr := s.loadIncident(ctx, incidentID)
	if loadErr != nil {
		return loadErr
	}
	if !latest.OwnedBy(actor.ID) {
		return apperrors.NewForbidden("incident is assigned to another engineer")
	}
	return apperrors.NewConflict("incident changed concurrently; retry",
		map[string]any{"incident_id": incidentID, "status": latest.Status})
}

func (s *IncidentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(ctx, event)
}

func containsStatus(statuses []domain.IncidentStatus, status domain.IncidentStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}
