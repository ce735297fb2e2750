package sqlite

import (
	"time"

	"gorm.io/gorm"
)

type userModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:name;type:text;not null"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null"`
	Role         string    `gorm:"column:role;type:text;not null;index"`
	PushToken    *string   `gorm:"column:push_token;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (userModel) TableName() string {
	return "users"
}

type incidentModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title       string    `gorm:"column:title;type:text;not null"`
	Description string    `gorm:"column:description;type:text;not null"`
	Priority    string    `gorm:"column:priority;type:text;not null;default:MEDIUM"`
	Status      string    `gorm:"column:status;type:text;not null;default:OPEN"`
	ReporterID  int64     `gorm:"column:reporter_id;not null;index"`
	EngineerID  *int64    `gorm:"column:engineer_id;index"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;index"`
}

func (incidentModel) TableName() string {
	return "incidents"
}

// incidentRow is an incident joined with its reporter and engineer names.
type incidentRow struct {
	ID           int64     `gorm:"column:id"`
	Title        string    `gorm:"column:title"`
	Description  string    `gorm:"column:description"`
	Priority     string    `gorm:"column:priority"`
	Status       string    `gorm:"column:status"`
	ReporterID   int64     `gorm:"column:reporter_id"`
	EngineerID   *int64    `gorm:"column:engineer_id"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	ReporterName string    `gorm:"column:reporter_name"`
	EngineerName string    `gorm:"column:engineer_name"`
}

func (r incidentRow) model() incidentModel {
	return incidentModel{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      r.Status,
		ReporterID:  r.ReporterID,
		EngineerID:  r.EngineerID,
		CreatedAt:   r.CreatedAt,
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&userModel{}, &incidentModel{})
}
