package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/persistence"
	"github.com/spec-kit/incident-service/internal/repository"
)

func setupPostgres(t *testing.T) *persistence.Postgres {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("Skipping postgres repository test: POSTGRES_TEST_DSN environment variable not set")
	}

	ctx := context.Background()
	logger := zap.NewNop()
	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 4}, logger)
	gt.NoError(t, err).Required()
	t.Cleanup(pg.Close)

	gt.NoError(t, persistence.RunMigrations(ctx, pg.Pool, logger)).Required()
	_, err = pg.Pool.Exec(ctx, `TRUNCATE incidents, users RESTART IDENTITY CASCADE`)
	gt.NoError(t, err).Required()
	return pg
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

func TestPostgresUserRepository(t *testing.T) {
	pg := setupPostgres(t)
	ctx := context.Background()
	repo := repository.NewUserRepository(pg.Pool)

	alice := createUser(t, repo, "alice", domain.RoleReporter)
	bob := createUser(t, repo, "bob", domain.RoleEngineer)
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

		_, err = repo.GetByID(ctx, 9999)
		gt.Bool(t, errors.Is(err, repository.ErrNotFound)).True()
	})

	t.Run("list filtered by role", func(t *testing.T) {
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

		err = repo.UpdatePushToken(ctx, 9999, "device-2")
		gt.Bool(t, errors.Is(err, repository.ErrNotFound)).True()
	})
}

func TestPostgresIncidentRepository(t *testing.T) {
	pg := setupPostgres(t)
	ctx := context.Background()
	users := repository.NewUserRepository(pg.Pool)
	incidents := repository.NewIncidentRepository(pg.Pool)

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
		gt.Value(t, all[2].Status).Equal(domain.StatusOpen)
		gt.Value(t, all[2].ReporterName).Equal("alice")
		gt.Value(t, all[2].EngineerName).Equal("")
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
		cmd := repository.AssignCommand{
			IncidentID:   first.ID,
			EngineerID:   bob.ID,
			FromStatuses: []domain.IncidentStatus{domain.StatusOpen},
		}
		updated, err := incidents.Assign(ctx, cmd)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Status).Equal(domain.StatusInProgress)
		gt.Value(t, *updated.EngineerID).Equal(bob.ID)

		_, err = incidents.Assign(ctx, cmd)
		gt.Bool(t, errors.Is(err, repository.ErrStale)).True()

		assigned, err := incidents.List(ctx, repository.IncidentFilter{EngineerID: &bob.ID})
		gt.NoError(t, err).Required()
		gt.A(t, assigned).Length(1).Required()
		gt.Value(t, assigned[0].ID).Equal(first.ID)
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

		_, err = incidents.SetStatus(ctx, repository.StatusCommand{
			IncidentID:         first.ID,
			ExpectedEngineerID: bob.ID,
			ExpectedStatus:     domain.StatusResolved,
			NewStatus:          domain.StatusClosed,
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
