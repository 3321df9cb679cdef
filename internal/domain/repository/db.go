package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"algo_tracker/internal/common"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// ext runs statements on tx when one is given, on the pool otherwise.
func ext(db *sqlx.DB, tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return db
}

// translate maps driver errors onto the common sentinels. conflicts names
// the message to use per unique constraint.
func translate(entity, op string, err error, conflicts map[string]string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s not found: %w", entity, common.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // Unique violation
			if msg, ok := conflicts[pgErr.ConstraintName]; ok {
				return fmt.Errorf("%s: %w", msg, common.ErrConflict)
			}
			return fmt.Errorf("%s already exists: %w", entity, common.ErrConflict)
		case "23503": // Foreign key violation
			return fmt.Errorf("%s references a missing row: %w", entity, common.ErrNotFound)
		case "23514": // Check violation
			return fmt.Errorf("%s violates %s: %w", entity, pgErr.ConstraintName, common.ErrValidation)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireAffected(entity, op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %w", entity, common.ErrNotFound)
	}
	return nil
}
