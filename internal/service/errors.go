package service

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidOpportunity is returned when a referenced opportunity does not exist
	ErrInvalidOpportunity = errors.New("referenced opportunity does not exist")

	// ErrDuplicateEmail is returned when registering an email that is already taken
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned on a failed login attempt
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInactiveAccount is returned when an inactive account tries to authenticate
	ErrInactiveAccount = errors.New("account is inactive")

	// ErrInvalidSortKey is returned when a list request names an unsupported sort key
	ErrInvalidSortKey = errors.New("unsupported sort key")
)

// translateDBError maps database failures onto service sentinels. Postgres
// error codes 23503 (foreign key) and 23505 (unique) cover races that slip
// past the explicit pre-checks.
func translateDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return ErrInvalidInput
		case "23505":
			return ErrConflict
		}
	}
	return err
}

// clampPage normalizes pagination input
func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
