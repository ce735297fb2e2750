package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/m-mizutani/gt"
)

func TestWrapStale(t *testing.T) {
	t.Run("wrapped no rows becomes stale", func(t *testing.T) {
		err := wrapStale(fmt.Errorf("scan: %w", pgx.ErrNoRows), "assign incident")
		gt.Bool(t, errors.Is(err, ErrStale)).True()
	})

	t.Run("other errors pass through", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := wrapStale(cause, "assign incident")
		gt.Bool(t, errors.Is(err, cause)).True()
		gt.Bool(t, errors.Is(err, ErrStale)).False()
	})
}

func TestWrapNoRows(t *testing.T) {
	err := wrapNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows), "get user")
	gt.Bool(t, errors.Is(err, ErrNotFound)).True()
}

func TestIsUniqueViolation(t *testing.T) {
	gt.Bool(t, isUniqueViolation(&pgconn.PgError{Code: "23505"})).True()
	gt.Bool(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}))).True()
	gt.Bool(t, isUniqueViolation(&pgconn.PgError{Code: "23503"})).False()
	gt.Bool(t, isUniqueViolation(errors.New("boom"))).False()
}
