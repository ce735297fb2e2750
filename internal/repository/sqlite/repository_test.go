package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/m-mizutani/gt"
	"gorm.io/gorm"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/repository"
	"github.com/spec-kit/incident-service/internal/repository/sqlite"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "incidents.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	gt.NoError(t, err).Required()
	sqlDB, err := db.DB()
	gt.NoError(t, err).Required()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	gt.NoError(t, sqlite.Migrate(db)).Required()
	return db
}

func createUser(t *testing.T, repo repository.UserRepository, name string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:         name,
		Email:        domain.NormalizeEmail(name + "@example.com"),
		PasswordHash: "hash",
		Role:         role,
	}
	gt.NoError(t, repo.Create(context.Background(), user)).Required()
	return user
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewUserRepository(setupDB(t))

	alice := createUser(t, repo, "alice", domain.RoleReporter)
	bob := createUser(t, repo, "bob", domain.RoleEngineer)
	gt.Bool(t, alice.ID > 0).True()
	gt.Bool(t, bob.ID > alice.ID).True()

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &domain.User{Name: "again", Email: alice.Email, PasswordHash: "x", Role: domain.RoleReporter})
		gt.Bool(t, errors.Is(err, repository.ErrDuplicate)).True()
	})

	t.Run("lookup", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "alice@example.com")
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(alice.ID)
		gt.Value(t, got.Role).Equal(domain.RoleReporter)
		gt.Bool(t, got.HasPushToken()).False()

		_, err = repo.GetByID(ctx, 9999)
		gt.Bool(t, errors.Is(err, repository.ErrNotFound)).True()
	})

	t.Run("list filtered by role", func(t *testing.T) {
		all, err := repo.List(ctx, repository.UserFilter{})
		gt.NoError(t, err).Required()
		gt.A(t, all).Length(2)

		role := domain.RoleEngineer
		engineers, err := repo.List(ctx, repository.UserFilter{Role: &role})
		gt.NoError(t, err).Required()
		gt.A(t, engineers).Length(1).Required()
		gt.Value(t, engineers[0].ID).Equal(bob.ID)
	})

	t.Run("push token", func(t *testing.T) {
		gt.NoError(t, repo.UpdatePushToken(ctx, bob.ID, "device-1")).Required()
		got, err := repo.GetByID(ctx, bob.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, got.HasPushToken()).True()
		gt.Value(t, *got.PushToken).Equal("device-1")

		err = repo.UpdatePushToken(ctx, 9999, "device-2")
		gt.Bool(t, errors.Is(err, repository.ErrNotFound)).True()
	})
}

func TestIncidentRepository(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := sqlite.NewUserRepository(db)
	incidents := sqlite.NewIncidentRepository(db)

	alice := createUser(t, users, "alice", domain.RoleReporter)
	dave := createUser(t, users, "dave", domain.RoleReporter)
	bob := createUser(t, users, "bob", domain.RoleEngineer)

	newIncident := func(reporter *domain.User, title string) *domain.Incident {
		incident := &domain.Incident{
			Title:       title,
			Description: "desc",
			Priority:    domain.PriorityHigh,
			Status:      domain.StatusOpen,
			ReporterID:  reporter.ID,
		}
		gt.NoError(t, incidents.Create(ctx, incident)).Required()
		return incident
	}

	first := newIncident(alice, "first")
	second := newIncident(alice, "second")
	third := newIncident(dave, "third")

	t.Run("list is newest first with names", func(t *testing.T) {
		all, err := incidents.List(ctx, repository.IncidentFilter{})
		gt.NoError(t, err).Required()
		gt.A(t, all).Length(3).Required()
		gt.Value(t, all[0].ID).Equal(third.ID)
		gt.Value(t, all[1].ID).Equal(second.ID)
		gt.Value(t, all[2].ID).Equal(first.ID)
		gt.Value(t, all[2].ReporterName).Equal("alice")
		gt.Value(t, all[2].EngineerName).Equal("")
	})

	t.Run("listed rows carry every column", func(t *testing.T) {
		all, err := incidents.List(ctx, repository.IncidentFilter{ReporterID: &dave.ID})
		gt.NoError(t, err).Required()
		gt.A(t, all).Length(1).Required()
		got := all[0]
		gt.Value(t, got.ID).Equal(third.ID)
		gt.Value(t, got.Title).Equal("third")
		gt.Value(t, got.Description).Equal("desc")
		gt.Value(t, got.Priority).Equal(domain.PriorityHigh)
		gt.Value(t, got.Status).Equal(domain.StatusOpen)
		gt.Value(t, got.ReporterID).Equal(dave.ID)
		gt.Value(t, got.EngineerID).Nil()
		gt.Value(t, got.ReporterName).Equal("dave")
		gt.Bool(t, got.CreatedAt.IsZero()).False()
	})

	t.Run("list by reporter", func(t *testing.T) {
		mine, err := incidents.List(ctx, repository.IncidentFilter{ReporterID: &alice.ID})
		gt.NoError(t, err).Required()
		gt.A(t, mine).Length(2)
		for _, incident := range mine {
			gt.Value(t, incident.ReporterID).Equal(alice.ID)
		}
	})

	t.Run("assign only from allowed statuses", func(t *testing.T) {
		updated, err := incidents.Assign(ctx, repository.AssignCommand{
			IncidentID:   first.ID,
			EngineerID:   bob.ID,
			FromStatuses: []domain.IncidentStatus{domain.StatusOpen},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Status).Equal(domain.StatusInProgress)
		gt.Value(t, *updated.EngineerID).Equal(bob.ID)

		_, err = incidents.Assign(ctx, repository.AssignCommand{
			IncidentID:   first.ID,
			EngineerID:   bob.ID,
			FromStatuses: []domain.IncidentStatus{domain.StatusOpen},
		})
		gt.Bool(t, errors.Is(err, repository.ErrStale)).True()

		assigned, err := incidents.List(ctx, repository.IncidentFilter{EngineerID: &bob.ID})
		gt.NoError(t, err).Required()
		gt.A(t, assigned).Length(1).Required()
		gt.Value(t, assigned[0].ID).Equal(first.ID)
		gt.Value(t, assigned[0].Status).Equal(domain.StatusInProgress)
		gt.Value(t, *assigned[0].EngineerID).Equal(bob.ID)
		gt.Value(t, assigned[0].EngineerName).Equal("bob")
	})

	t.Run("set status checks owner and expected status", func(t *testing.T) {
		_, err := incidents.SetStatus(ctx, repository.StatusCommand{
			IncidentID:         first.ID,
			ExpectedEngineerID: bob.ID + 100,
			ExpectedStatus:     domain.StatusInProgress,
			NewStatus:          domain.StatusResolved,
		})
		gt.Bool(t, errors.Is(err, repository.ErrStale)).True()

		updated, err := incidents.SetStatus(ctx, repository.StatusCommand{
			IncidentID:         first.ID,
			ExpectedEngineerID: bob.ID,
			ExpectedStatus:     domain.StatusInProgress,
			NewStatus:          domain.StatusResolved,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Status).Equal(domain.StatusResolved)
	})

	t.Run("missing incident", func(t *testing.T) {
		_, err := incidents.GetByID(ctx, 9999)
		gt.Bool(t, errors.Is(err, repository.ErrNotFound)).True()
	})
}
