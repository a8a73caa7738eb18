package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStaleStatus is returned when a guarded status transition affects
	// no rows: another actor already moved the record.
	ErrStaleStatus = errors.New("record status changed by another actor")

	// ErrSlotUnavailable is returned when a slot reservation loses the
	// race for the (entity_type, entity_id, date, start_time) key.
	ErrSlotUnavailable = errors.New("schedule slot is not available")

	// ErrDuplicate is returned when an insert collides with an existing
	// record on a unique key.
	ErrDuplicate = errors.New("record already exists")
)

// isUniqueViolation reports whether err is a postgres unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
