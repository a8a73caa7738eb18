package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aviary-labs/flightdesk/internal/model"
)

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// BulkCreate inserts slots, skipping any that already exist for the same
// (entity_type, entity_id, date, start_time) key. Re-initializing a
// schedule is therefore idempotent and never touches reserved slots.
// Returns the number of rows actually inserted.
func (r *SlotRepository) BulkCreate(ctx context.Context, slots []model.ScheduleSlot) (int64, error) {
	query := `
		INSERT INTO schedule_slots (entity_type, entity_id, slot_date, start_time, end_time, is_available)
		VALUES ($1, $2, $3::date, $4::time, $5::time, $6)
		ON CONFLICT (entity_type, entity_id, slot_date, start_time) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, slot := range slots {
		batch.Queue(query,
			slot.EntityType,
			slot.EntityID,
			slot.Date,
			slot.StartTime,
			slot.EndTime,
			slot.IsAvailable,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range slots {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("bulk create slots: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// BlockedIDs returns the set of entity ids with a reserved slot for the
// exact (entity_type, date, start_time) key.
func (r *SlotRepository) BlockedIDs(ctx context.Context, entityType model.EntityType, date, startTime string) (map[string]struct{}, error) {
	query := `
		SELECT entity_id
		FROM schedule_slots
		WHERE entity_type = $1
		  AND slot_date = $2::date
		  AND start_time = $3::time
		  AND NOT is_available
	`

	rows, err := r.pool.Query(ctx, query, entityType, date, startTime)
	if err != nil {
		return nil, fmt.Errorf("get blocked ids: %w", err)
	}
	defer rows.Close()

	blocked := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan blocked id: %w", err)
		}
		blocked[id] = struct{}{}
	}
	return blocked, rows.Err()
}

// GetByEntity returns an entity's slots in a date range, soonest first.
func (r *SlotRepository) GetByEntity(ctx context.Context, entityType model.EntityType, entityID, fromDate, toDate string) ([]model.ScheduleSlot, error) {
	query := `
		SELECT id, entity_type, entity_id,
		       to_char(slot_date, 'YYYY-MM-DD'),
		       to_char(start_time, 'HH24:MI'),
		       to_char(end_time, 'HH24:MI'),
		       is_available, created_at
		FROM schedule_slots
		WHERE entity_type = $1
		  AND entity_id = $2
		  AND slot_date >= $3::date
		  AND slot_date < $4::date
		ORDER BY slot_date, start_time
	`

	rows, err := r.pool.Query(ctx, query, entityType, entityID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("get slots by entity: %w", err)
	}
	defer rows.Close()

	var slots []model.ScheduleSlot
	for rows.Next() {
		var slot model.ScheduleSlot
		err := rows.Scan(
			&slot.ID,
			&slot.EntityType,
			&slot.EntityID,
			&slot.Date,
			&slot.StartTime,
			&slot.EndTime,
			&slot.IsAvailable,
			&slot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// reserveSlotTx atomically marks a slot reserved inside tx and returns
// the slot's id. The upsert races on the unique slot key: if the slot
// row exists and is already reserved, the conditional update matches
// nothing and no row returns. At most one of two concurrent
// reservations can succeed.
func reserveSlotTx(ctx context.Context, tx pgx.Tx, entityType model.EntityType, entityID, date, startTime, endTime string) (int64, error) {
	query := `
		INSERT INTO schedule_slots (entity_type, entity_id, slot_date, start_time, end_time, is_available)
		VALUES ($1, $2, $3::date, $4::time, $5::time, false)
		ON CONFLICT (entity_type, entity_id, slot_date, start_time)
		DO UPDATE SET is_available = false
		WHERE schedule_slots.is_available
		RETURNING id
	`

	var id int64
	err := tx.QueryRow(ctx, query, entityType, entityID, date, startTime, endTime).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrSlotUnavailable
	}
	if err != nil {
		return 0, fmt.Errorf("reserve slot: %w", err)
	}
	return id, nil
}

// releaseSlotTx reopens a reserved slot by id inside tx. Releasing by
// the recorded id means a request can only ever free the hold it took
// itself, never one belonging to another request on the same key.
func releaseSlotTx(ctx context.Context, tx pgx.Tx, slotID int64) error {
	if _, err := tx.Exec(ctx, `UPDATE schedule_slots SET is_available = true WHERE id = $1`, slotID); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}
