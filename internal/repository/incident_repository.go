package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"

	"github.com/spec-kit/incident-service/internal/domain"
)

// IncidentFilter captures the role-scoped visibility rules. Nil fields do not filter.
type IncidentFilter struct {
	ReporterID *int64
	EngineerID *int64
}

// AssignCommand sets the engineer and moves the incident to InProgress, but only
// while the stored status is one of FromStatuses.
type AssignCommand struct {
	IncidentID   int64
	EngineerID   int64
	FromStatuses []domain.IncidentStatus
}

// StatusCommand changes status only while the stored owner and status still match.
type StatusCommand struct {
	IncidentID         int64
	ExpectedEngineerID int64
	ExpectedStatus     domain.IncidentStatus
	NewStatus          domain.IncidentStatus
}

// IncidentRepository encapsulates incident persistence.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id int64) (*domain.Incident, error)
	List(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error)
	// Assign and SetStatus are single-row conditional writes. When no row matches
	// they return ErrStale and the caller re-reads to find out why.
	Assign(ctx context.Context, cmd AssignCommand) (*domain.Incident, error)
	SetStatus(ctx context.Context, cmd StatusCommand) (*domain.Incident, error)
}

type incidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository instantiates repository.
func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{pool: pool}
}

const incidentColumns = `id, title, description, priority, status, reporter_id, engineer_id, created_at`

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	const query = `
        INSERT INTO incidents (title, description, priority, status, reporter_id, engineer_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		string(incident.Priority),
		string(incident.Status),
		incident.ReporterID,
		incident.EngineerID,
	).Scan(&incident.ID, &incident.CreatedAt)
	if err != nil {
		return goerr.Wrap(err, "insert incident", goerr.V("reporter_id", incident.ReporterID))
	}
	return nil
}

func (r *incidentRepository) GetByID(ctx context.Context, id int64) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id=$1`
	incident, err := scanIncident(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapNoRows(err, "get incident", goerr.V("incident_id", id))
	}
	return incident, nil
}

func (r *incidentRepository) List(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error) {
	base := `SELECT i.id, i.title, i.description, i.priority, i.status, i.reporter_id, i.engineer_id, i.created_at,
                    COALESCE(rep.name, ''), COALESCE(eng.name, '')
             FROM incidents i
             LEFT JOIN users rep ON rep.id = i.reporter_id
             LEFT JOIN users eng ON eng.id = i.engineer_id`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("i.reporter_id=$%d", len(args)))
	}
	if filter.EngineerID != nil {
		args = append(args, *filter.EngineerID)
		clauses = append(clauses, fmt.Sprintf("i.engineer_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY i.created_at DESC, i.id DESC`, base, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "list incidents")
	}
	defer rows.Close()

	result := []domain.Incident{}
	for rows.Next() {
		var (
			incident         domain.Incident
			priority, status string
		)
		if err := rows.Scan(
			&incident.ID,
			&incident.Title,
			&incident.Description,
			&priority,
			&status,
			&incident.ReporterID,
			&incident.EngineerID,
			&incident.CreatedAt,
			&incident.ReporterName,
			&incident.EngineerName,
		); err != nil {
			return nil, goerr.Wrap(err, "scan incident")
		}
		incident.Priority = domain.IncidentPriority(priority)
		incident.Status = domain.IncidentStatus(status)
		result = append(result, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "iterate incidents")
	}
	return result, nil
}

func (r *incidentRepository) Assign(ctx context.Context, cmd AssignCommand) (*domain.Incident, error) {
	query := `
        UPDATE incidents SET engineer_id=$1, status=$2
        WHERE id=$3 AND status = ANY($4)
        RETURNING ` + incidentColumns
	incident, err := scanIncident(r.pool.QueryRow(ctx, query,
		cmd.EngineerID,
		string(domain.StatusInProgress),
		cmd.IncidentID,
		statusStrings(cmd.FromStatuses),
	))
	if err != nil {
		return nil, wrapStale(err, "assign incident",
			goerr.V("incident_id", cmd.IncidentID),
			goerr.V("engineer_id", cmd.EngineerID))
	}
	return incident, nil
}

func (r *incidentRepository) SetStatus(ctx context.Context, cmd StatusCommand) (*domain.Incident, error) {
	query := `
        UPDATE incidents SET status=$1
        WHERE id=$2 AND engineer_id=$3 AND status=$4
        RETURNING ` + incidentColumns
	incident, err := scanIncident(r.pool.QueryRow(ctx, query,
		string(cmd.NewStatus),
		cmd.IncidentID,
		cmd.ExpectedEngineerID,
		string(cmd.ExpectedStatus),
	))
	if err != nil {
		return nil, wrapStale(err, "set incident status",
			goerr.V("incident_id", cmd.IncidentID),
			goerr.V("new_status", cmd.NewStatus))
	}
	return incident, nil
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var (
		incident         domain.Incident
		priority, status string
	)
	if err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&priority,
		&status,
		&incident.ReporterID,
		&incident.EngineerID,
		&incident.CreatedAt,
	); err != nil {
		return nil, err
	}
	incident.Priority = domain.IncidentPriority(priority)
	incident.Status = domain.IncidentStatus(status)
	return &incident, nil
}

func statusStrings(statuses []domain.IncidentStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}

func wrapStale(err error, msg string, opts ...goerr.Option) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return goerr.Wrap(ErrStale, msg, opts...)
	}
	return goerr.Wrap(err, msg, opts...)
}
