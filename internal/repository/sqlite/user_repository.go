package sqlite

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gorm.io/gorm"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/repository"
)

// UserRepository is the gorm/sqlite implementation of repository.UserRepository.
type UserRepository struct {
	db *gorm.DB
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a repository backed by db.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	row := userModel{
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		PushToken:    user.PushToken,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return goerr.Wrap(repository.ErrDuplicate, "email already registered", goerr.V("email", user.Email))
		}
		return goerr.Wrap(err, "insert user", goerr.V("email", user.Email))
	}
	user.ID = row.ID
	user.CreatedAt = row.CreatedAt
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var row userModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, wrapNotFound(err, "get user", goerr.V("user_id", id))
	}
	return toUser(row), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&row).Error; err != nil {
		return nil, wrapNotFound(err, "get user by email", goerr.V("email", email))
	}
	return toUser(row), nil
}

func (r *UserRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	query := r.db.WithContext(ctx).Model(&userModel{})
	if filter.Role != nil {
		query = query.Where("role = ?", string(*filter.Role))
	}

	var rows []userModel
	if err := query.Order("name asc").Order("id asc").Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "list users")
	}

	result := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		result = append(result, *toUser(row))
	}
	return result, nil
}

func (r *UserRepository) UpdatePushToken(ctx context.Context, id int64, token string) error {
	res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Update("push_token", token)
	if res.Error != nil {
		return goerr.Wrap(res.Error, "update push token", goerr.V("user_id", id))
	}
	if res.RowsAffected == 0 {
		return goerr.Wrap(repository.ErrNotFound, "user not found", goerr.V("user_id", id))
	}
	return nil
}

func toUser(row userModel) *domain.User {
	return &domain.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         domain.Role(row.Role),
		PushToken:    row.PushToken,
		CreatedAt:    row.CreatedAt,
	}
}

func wrapNotFound(err error, msg string, opts ...goerr.Option) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return goerr.Wrap(repository.ErrNotFound, msg, opts...)
	}
	return goerr.Wrap(err, msg, opts...)
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
