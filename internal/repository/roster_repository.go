package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aviary-labs/flightdesk/internal/model"
)

// RosterRepository reads the reference rosters of schedulable entities.
// Roster rows are maintained outside this service; only active entries
// are ever offered for scheduling.
type RosterRepository struct {
	pool *pgxpool.Pool
}

func NewRosterRepository(pool *pgxpool.Pool) *RosterRepository {
	return &RosterRepository{pool: pool}
}

// ListActive returns the active roster for an entity type, each entry
// decorated with its display label.
func (r *RosterRepository) ListActive(ctx context.Context, entityType model.EntityType) ([]model.EntityRef, error) {
	var query string
	switch entityType {
	case model.EntityStudent:
		query = `
			SELECT id, first_name || ' ' || last_name
			FROM students
			WHERE is_active
			ORDER BY last_name, first_name
		`
	case model.EntityCFI:
		query = `
			SELECT id, first_name || ' ' || last_name
			FROM cfis
			WHERE is_active
			ORDER BY last_name, first_name
		`
	case model.EntityAircraft:
		query = `
			SELECT id, tail_number || ' ' || model
			FROM aircraft
			WHERE is_active
			ORDER BY tail_number
		`
	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s roster: %w", entityType, err)
	}
	defer rows.Close()

	var refs []model.EntityRef
	for rows.Next() {
		var ref model.EntityRef
		if err := rows.Scan(&ref.ID, &ref.DisplayName); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
