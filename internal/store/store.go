package store

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrLocationNotFound signals a missing location record.
	ErrLocationNotFound = errors.New("location not found")
	// ErrInvalidLocation indicates validation failure for location data.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrInvalidTransition indicates a moderation status change that is not
	// allowed from the record's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrReviewNotFound signals a missing review record.
	ErrReviewNotFound = errors.New("review not found")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
