package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/policy"
	"github.com/spec-kit/incident-service/internal/repository"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

// UserService serves the read-only user directory and push token registration.
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewUserService creates the service.
func NewUserService(users repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// ListUsers returns the directory, optionally narrowed to one role. An empty
// rawRole lists everyone; an unknown one is a validation error.
func (s *UserService) ListUsers(ctx context.Context, actor domain.Actor, rawRole string) ([]domain.User, error) {
	if err := policy.AuthorizeRole(actor.Role, policy.ActionListUsers).Err(); err != nil {
		return nil, err
	}

	filter := repository.UserFilter{}
	if strings.TrimSpace(rawRole) != "" {
		role, ok := domain.ParseRole(rawRole)
		if !ok {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": rawRole, "allowed": domain.Roles})
		}
		filter.Role = &role
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, storeFailure(s.logger, err, "list users")
	}
	return users, nil
}

// SavePushToken records the device token notifications are sent to.
func (s *UserService) SavePushToken(ctx context.Context, actor domain.Actor, token string) error {
	if err := policy.AuthorizeRole(actor.Role, policy.ActionSavePushToken).Err(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.NewValidationError("FCM token is required", map[string]any{"field": "fcmtoken"})
	}

	if err := s.users.UpdatePushToken(ctx, actor.ID, token); err != nil {
		return notFoundOr(s.logger, err, "user", map[string]any{"user_id": actor.ID})
	}
	s.logger.Debug("push token saved", zap.Int64("user_id", actor.ID))
	return nil
}
