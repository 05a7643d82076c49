package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/davidleathers/aire-backend/internal/domain/errors"
)

// Common repository errors
var (
	ErrNotFound       = errors.New("entity not found")
	ErrDuplicateKey   = errors.New("duplicate key violation")
	ErrUndefinedTable = errors.New("collection table does not exist")
)

// IsDuplicateKeyViolation checks if the error is a unique constraint violation
func IsDuplicateKeyViolation(err error) bool {
	return hasPgCode(err, "23505") || containsAny(err, "duplicate key", "violates unique constraint")
}

// IsUndefinedTable reports a query against a table that was never created.
func IsUndefinedTable(err error) bool {
	return hasPgCode(err, "42P01")
}

// IsNotFound checks if the error indicates a record was not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

// IsConnectionError checks if the error is related to database connectivity
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	return containsAny(err, "connection refused", "connection reset", "no connection to the server", "closed pool")
}

// WrapRepositoryError classifies a driver error for the given operation.
// Connectivity failures become retryable external errors; everything else
// keeps the original error in the chain.
func WrapRepositoryError(err error, operation string) error {
	if err == nil {
		return nil
	}

	switch {
	case IsNotFound(err):
		return fmt.Errorf("%s: %w", operation, ErrNotFound)
	case IsDuplicateKeyViolation(err):
		return fmt.Errorf("%s: %w: %w", operation, ErrDuplicateKey, err)
	case IsUndefinedTable(err):
		return fmt.Errorf("%s: %w: %w", operation, ErrUndefinedTable, err)
	case IsConnectionError(err):
		return apperrors.NewExternalError("postgres", operation).WithCause(err)
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func containsAny(err error, fragments ...string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}
