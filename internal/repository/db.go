package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var (
	// ErrNotFound is returned by mutations that matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict reports a unique constraint violation.
	ErrConflict = errors.New("unique constraint violated")
	// ErrForeignKey reports a reference to a row that does not exist.
	ErrForeignKey = errors.New("referenced row does not exist")
)

// ConstraintError carries the name of the violated constraint.
type ConstraintError struct {
	Kind       error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return e.Kind.Error() + " (" + e.Constraint + ")"
}

func (e *ConstraintError) Is(target error) bool { return target == e.Kind }

func (e *ConstraintError) Unwrap() error { return e.Err }

// translate maps Postgres constraint violations onto ErrConflict / ErrForeignKey.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		return &ConstraintError{Kind: ErrConflict, Constraint: pgErr.ConstraintName, Err: err}
	case foreignKeyViolation:
		return &ConstraintError{Kind: ErrForeignKey, Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}

// ConstraintName returns the violated constraint carried by err, if any.
func ConstraintName(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}
