package service

import (
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/observability"
	"github.com/spec-kit/incident-service/internal/repository"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

// notFoundOr maps repository.ErrNotFound to a NotFound error for resource and
// anything else to an internal error, logging the latter with its context.
func notFoundOr(logger *zap.Logger, err error, resource string, details map[string]any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, details)
	}
	return storeFailure(logger, err, "load "+resource)
}

// storeFailure logs a store error with any goerr values and hides it behind a
// generic internal error.
func storeFailure(logger *zap.Logger, err error, op string) error {
	logger.Error("store operation failed",
		append([]zap.Field{zap.String("op", op)}, observability.ErrorFields(err)...)...)
	return apperrors.NewInternalError(err)
}
