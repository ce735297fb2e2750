package service_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/service"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	res, err := f.auth.Register(ctx, service.RegisterInput{
		Name: "Alice", Email: " Alice@Example.com ", Password: "pw", Role: "reporter",
	})
	gt.NoError(t, err).Required()
	gt.Value(t, res.User.Email).Equal("alice@example.com")
	gt.Value(t, res.User.Role).Equal(domain.RoleReporter)
	gt.Bool(t, res.Token != "").True()

	claims, err := f.auth.TokenManager().ParseToken(res.Token)
	gt.NoError(t, err).Required()
	gt.Value(t, claims.UserID).Equal(res.User.ID)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.auth.Register(ctx, service.RegisterInput{Name: "A2", Email: "alice@example.com", Password: "pw"})
		errCode(t, err, apperrors.CodeConflict)
		gt.Value(t, asDomainError(err).HTTPStatus).Equal(400)
	})

	t.Run("unknown role falls back to reporter", func(t *testing.T) {
		res, err := f.auth.Register(ctx, service.RegisterInput{Name: "Eve", Email: "eve@example.com", Password: "pw", Role: "ADMIN"})
		gt.NoError(t, err).Required()
		gt.Value(t, res.User.Role).Equal(domain.RoleReporter)
	})

	t.Run("role names are case sensitive", func(t *testing.T) {
		res, err := f.auth.Register(ctx, service.RegisterInput{Name: "Mo", Email: "mo@example.com", Password: "pw", Role: "manager"})
		gt.NoError(t, err).Required()
		gt.Value(t, res.User.Role).Equal(domain.RoleReporter)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.auth.Register(ctx, service.RegisterInput{Email: "x@example.com"})
		errCode(t, err, apperrors.CodeValidation)
	})

	t.Run("login", func(t *testing.T) {
		got, err := f.auth.Login(ctx, "ALICE@example.com", "pw")
		gt.NoError(t, err).Required()
		gt.Value(t, got.User.ID).Equal(res.User.ID)

		_, err = f.auth.Login(ctx, "alice@example.com", "wrong")
		errCode(t, err, apperrors.CodeUnauthorized)
		_, err = f.auth.Login(ctx, "nobody@example.com", "pw")
		errCode(t, err, apperrors.CodeUnauthorized)
	})

	t.Run("me", func(t *testing.T) {
		me, err := f.auth.Me(ctx, domain.Actor{ID: res.User.ID, Role: domain.RoleReporter})
		gt.NoError(t, err).Required()
		gt.Value(t, me.Name).Equal("Alice")

		_, err = f.auth.Me(ctx, domain.Actor{ID: 9999, Role: domain.RoleReporter})
		errCode(t, err, apperrors.CodeNotFound)
	})
}

func TestUserDirectory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	alice := f.register(t, "alice", domain.RoleReporter)
	f.register(t, "bob", domain.RoleEngineer)
	f.register(t, "carl", domain.RoleEngineer)

	all, err := f.users.ListUsers(ctx, alice, "")
	gt.NoError(t, err).Required()
	gt.A(t, all).Length(3)

	engineers, err := f.users.ListUsers(ctx, alice, "engineer")
	gt.NoError(t, err).Required()
	gt.A(t, engineers).Length(2).Required()
	gt.Value(t, engineers[0].Name).Equal("bob")

	_, err = f.users.ListUsers(ctx, alice, "janitor")
	errCode(t, err, apperrors.CodeValidation)

	err = f.users.SavePushToken(ctx, alice, "  ")
	errCode(t, err, apperrors.CodeValidation)

	gt.NoError(t, f.users.SavePushToken(ctx, alice, "device")).Required()
	stored, err := f.userRepo.GetByID(ctx, alice.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, stored.HasPushToken()).True()
}
