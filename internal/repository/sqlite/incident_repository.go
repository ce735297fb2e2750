package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gorm.io/gorm"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/repository"
)

// IncidentRepository is the gorm/sqlite implementation of repository.IncidentRepository.
type IncidentRepository struct {
	db *gorm.DB
}

var _ repository.IncidentRepository = (*IncidentRepository)(nil)

// NewIncidentRepository creates a repository backed by db.
func NewIncidentRepository(db *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

func (r *IncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	row := incidentModel{
		Title:       incident.Title,
		Description: incident.Description,
		Priority:    string(incident.Priority),
		Status:      string(incident.Status),
		ReporterID:  incident.ReporterID,
		EngineerID:  incident.EngineerID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return goerr.Wrap(err, "insert incident", goerr.V("reporter_id", incident.ReporterID))
	}
	incident.ID = row.ID
	incident.CreatedAt = row.CreatedAt
	return nil
}

func (r *IncidentRepository) GetByID(ctx context.Context, id int64) (*domain.Incident, error) {
	return getIncident(ctx, r.db, id)
}

const listColumns = "i.id, i.title, i.description, i.priority, i.status, i.reporter_id, i.engineer_id, i.created_at, " +
	"COALESCE(rep.name, '') AS reporter_name, COALESCE(eng.name, '') AS engineer_name"

func (r *IncidentRepository) List(ctx context.Context, filter repository.IncidentFilter) ([]domain.Incident, error) {
	query := r.db.WithContext(ctx).
		Table("incidents AS i").
		Select(listColumns).
		Joins("LEFT JOIN users rep ON rep.id = i.reporter_id").
		Joins("LEFT JOIN users eng ON eng.id = i.engineer_id")
	if filter.ReporterID != nil {
		query = query.Where("i.reporter_id = ?", *filter.ReporterID)
	}
	if filter.EngineerID != nil {
		query = query.Where("i.engineer_id = ?", *filter.EngineerID)
	}

	var rows []incidentRow
	if err := query.Order("i.created_at desc").Order("i.id desc").Scan(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "list incidents")
	}

	result := make([]domain.Incident, 0, len(rows))
	for _, row := range rows {
		incident := toIncident(row.model())
		incident.ReporterName = row.ReporterName
		incident.EngineerName = row.EngineerName
		result = append(result, *incident)
	}
	return result, nil
}

func (r *IncidentRepository) Assign(ctx context.Context, cmd repository.AssignCommand) (*domain.Incident, error) {
	statuses := make([]string, 0, len(cmd.FromStatuses))
	for _, status := range cmd.FromStatuses {
		statuses = append(statuses, string(status))
	}

	var updated *domain.Incident
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&incidentModel{}).
			Where("id = ? AND status IN ?", cmd.IncidentID, statuses).
			Updates(map[string]any{
				"engineer_id": cmd.EngineerID,
				"status":      string(domain.StatusInProgress),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrStale
		}
		incident, err := getIncident(ctx, tx, cmd.IncidentID)
		if err != nil {
			return err
		}
		updated = incident
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "assign incident",
			goerr.V("incident_id", cmd.IncidentID),
			goerr.V("engineer_id", cmd.EngineerID))
	}
	return updated, nil
}

func (r *IncidentRepository) SetStatus(ctx context.Context, cmd repository.StatusCommand) (*domain.Incident, error) {
	var updated *domain.Incident
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&incidentModel{}).
			Where("id = ? AND engineer_id = ? AND status = ?",
				cmd.IncidentID, cmd.ExpectedEngineerID, string(cmd.ExpectedStatus)).
			Update("status", string(cmd.NewStatus))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrStale
		}
		incident, err := getIncident(ctx, tx, cmd.IncidentID)
		if err != nil {
			return err
		}
		updated = incident
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "set incident status",
			goerr.V("incident_id", cmd.IncidentID),
			goerr.V("new_status", cmd.NewStatus))
	}
	return updated, nil
}

func getIncident(ctx context.Context, db *gorm.DB, id int64) (*domain.Incident, error) {
	var row incidentModel
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(repository.ErrNotFound, "get incident", goerr.V("incident_id", id))
		}
		return nil, goerr.Wrap(err, "get incident", goerr.V("incident_id", id))
	}
	return toIncident(row), nil
}

func toIncident(row incidentModel) *domain.Incident {
	return &domain.Incident{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Priority:    domain.IncidentPriority(row.Priority),
		Status:      domain.IncidentStatus(row.Status),
		ReporterID:  row.ReporterID,
		EngineerID:  row.EngineerID,
		CreatedAt:   row.CreatedAt,
	}
}
