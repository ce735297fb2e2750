package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/events"
	"github.com/spec-kit/incident-service/internal/notification"
	"github.com/spec-kit/incident-service/internal/persistence"
	"github.com/spec-kit/incident-service/internal/repository/sqlite"
	"github.com/spec-kit/incident-service/internal/service"
)

type recordingGateway struct {
	mu   sync.Mutex
	sent []notification.Message
	fail bool
}

func (g *recordingGateway) Send(_ context.Context, msg notification.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, msg)
	if g.fail {
		return errors.New("gateway unavailable")
	}
	return nil
}

func (g *recordingGateway) messages() []notification.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]notification.Message{}, g.sent...)
}

type fixture struct {
	auth       *service.AuthService
	users      *service.UserService
	incidents  *service.IncidentService
	userRepo   *sqlite.UserRepository
	dispatcher *events.AsyncDispatcher
	gateway    *recordingGateway
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := persistence.NewSQLite(ctx, config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "incidents.sqlite")}, logger)
	gt.NoError(t, err).Required()
	t.Cleanup(db.Close)
	gt.NoError(t, sqlite.Migrate(db.DB)).Required()

	userRepo := sqlite.NewUserRepository(db.DB)
	incidentRepo := sqlite.NewIncidentRepository(db.DB)

	dispatcher := events.NewAsyncDispatcher(logger)
	t.Cleanup(dispatcher.Close)
	gateway := &recordingGateway{}
	service.NewNotificationService(dispatcher, userRepo, gateway, logger, time.Second).RegisterHandlers()

	return &fixture{
		auth: service.NewAuthService(config.AuthConfig{JWTSecret: "test", TokenTTL: time.Hour, BcryptCost: 4},
			service.AuthDependencies{UserRepo: userRepo, Logger: logger}),
		users: service.NewUserService(userRepo, logger),
		incidents: service.NewIncidentService(service.IncidentDependencies{
			IncidentRepo: incidentRepo,
			UserRepo:     userRepo,
			Dispatcher:   dispatcher,
			Logger:       logger,
			Strict:       strict,
		}),
		userRepo:   userRepo,
		dispatcher: dispatcher,
		gateway:    gateway,
	}
}

// register creates an account and returns the matching actor.
func (f *fixture) register(t *testing.T, name string, role domain.Role) domain.Actor {
	t.Helper()
	res, err := f.auth.Register(context.Background(), service.RegisterInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: "password",
		Role:     string(role),
	})
	gt.NoError(t, err).Required()
	return domain.Actor{ID: res.User.ID, Role: res.User.Role}
}

func (f *fixture) withPushToken(t *testing.T, actor domain.Actor, token string) {
	t.Helper()
	gt.NoError(t, f.users.SavePushToken(context.Background(), actor, token)).Required()
}

func (f *fixture) report(t *testing.T, reporter domain.Actor, title string) *domain.Incident {
	t.Helper()
	incident, err := f.incidents.CreateIncident(context.Background(), reporter, service.CreateIncidentInput{
		Title:       title,
		Description: "details for " + title,
		Priority:    "HIGH",
	})
	gt.NoError(t, err).Required()
	return incident
}

func errCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	de := asDomainError(err)
	gt.Value(t, de.Code).Equal(code)
}
