package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/auth"
	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/repository"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

// AuthService coordinates registration, login and identity lookups.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
	hasher   *auth.PasswordHasher
	logger   *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Logger   *zap.Logger
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:    deps.UserRepo,
		tokenMgr: auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		hasher:   auth.NewPasswordHasher(cfg.BcryptCost),
		logger:   deps.Logger,
	}
}

// Register creates an account. Unknown or empty roles fall back to REPORTER.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)
	missing := []string{}
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	if !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	if err := auth.CheckLength(input.Password); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleOrDefault(input.Role),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewDuplicateEmail(email)
		}
		return nil, storeFailure(s.logger, err, "create user")
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.issue(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Burn(password)
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, storeFailure(s.logger, err, "load user by email")
	}
	if !s.hasher.Matches(user.PasswordHash, password) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(s.logger, err, "user", map[string]any{"user_id": actor.ID})
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}
