package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes for constraint violations.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

// Describe returns the most specific message available for a store error.
// Postgres errors carry their message and detail, everything else falls
// back to err.Error().
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		parts := []string{pgErr.Message}
		if pgErr.Detail != "" {
			parts = append(parts, pgErr.Detail)
		}
		return strings.Join(parts, ": ")
	}
	return err.Error()
}

// IsConstraintViolation reports whether err is a Postgres integrity
// constraint violation (foreign key, unique, check, not null).
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgForeignKeyViolation, pgUniqueViolation, pgCheckViolation, pgNotNullViolation:
		return true
	}
	return false
}

// ConstraintName returns the name of the violated constraint, or "" if err
// is not a Postgres error or names no constraint.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
